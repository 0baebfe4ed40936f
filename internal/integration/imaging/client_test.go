package imaging

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

func upload() catalog.ImageUpload {
	return catalog.ImageUpload{Data: []byte("raw-photo"), MimeType: "image/jpeg", Quality: QualityStandard}
}

func TestEnhanceSendsPayload(t *testing.T) {
	var got enhanceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"jobId":"job-7","data":{"imageBase64":"QUJD"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, APIKey: "key"}, nil, nil)
	res, err := c.Enhance(context.Background(), catalog.EnhanceRequest{Image: upload(), ItemName: "Cola", Category: "Drinks"})
	require.NoError(t, err)
	require.Equal(t, "data:image/png;base64,QUJD", res.ImageURL)
	require.Equal(t, catalog.ImageSourceEnhanced, res.Source)
	require.Equal(t, "job-7", res.InferenceID)

	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw-photo")), got.Image)
	require.Equal(t, QualityStandard, got.Metadata.Quality)
	require.Equal(t, "Cola", got.Metadata.ItemName)
	require.Contains(t, got.Prompt, "Product name: Cola\nCategory: Drinks\n")
	require.Contains(t, got.Prompt, "retail-ready product shot")
}

func TestEnhanceResponseShapes(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"enhancedImageBase64":"data:image/webp;base64,Zm9v"}`, "data:image/webp;base64,Zm9v"},
		{`{"output":"Zm9v"}`, "data:image/png;base64,Zm9v"},
		{`{"enhancedImageUrl":"https://cdn/x.png"}`, "https://cdn/x.png"},
		{`{"result":{"imageUrl":"https://cdn/y.png"}}`, "https://cdn/y.png"},
		{`{"data":{"enhancedImageUrl":"https://cdn/z.png"}}`, "https://cdn/z.png"},
	}
	for _, tc := range cases {
		var resp enhanceResponse
		require.NoError(t, json.Unmarshal([]byte(tc.body), &resp))
		require.Equal(t, tc.want, resp.imageURL(), tc.body)
	}
}

func TestEnhanceUnconfiguredReturnsOriginal(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://localhost:1"}, nil, nil)
	res, err := c.Enhance(context.Background(), catalog.EnhanceRequest{Image: upload()})
	require.NoError(t, err)
	require.Equal(t, catalog.ImageSourceOriginal, res.Source)
	require.Equal(t, upload().DataURL(), res.ImageURL)
}

func TestEnhanceEmptyAnswerReturnsOriginal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, APIKey: "key"}, nil, nil)
	res, err := c.Enhance(context.Background(), catalog.EnhanceRequest{Image: upload()})
	require.NoError(t, err)
	require.Equal(t, catalog.ImageSourceOriginal, res.Source)
}

func TestEnhanceFailureIsExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, APIKey: "key", MaxRetries: 2}, nil, nil)
	_, err := c.Enhance(context.Background(), catalog.EnhanceRequest{Image: upload()})
	require.ErrorIs(t, err, shared.ErrExternalService)
}

func TestBuildPromptDefaultsToHD(t *testing.T) {
	prompt := BuildPrompt("ultra", "", "")
	require.Contains(t, prompt, "high-definition")
	require.NotContains(t, prompt, "Product name")
}
