package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

func TestExtractJSONArray(t *testing.T) {
	fenced := "Here you go:\n```json\n[\n  {\"name\": \"Cola\", \"stock\": 4, \"price\": 1.5}, // first\n]\n```"
	require.JSONEq(t, `[{"name":"Cola","stock":4,"price":1.5}]`, ExtractJSONArray(fenced))

	bare := `noise [{"name":"http://x//y","stock":1,"price":2}] trailing`
	require.JSONEq(t, `[{"name":"http://x//y","stock":1,"price":2}]`, ExtractJSONArray(bare))

	require.Empty(t, ExtractJSONArray(`{"name":"not an array"}`))
}

func TestParseRows(t *testing.T) {
	rows, err := ParseRows("```json\n[{\"name\":\"Chips\",\"stock\":12,\"price\":2.25,\"cost\":1.1}]\n```")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Chips", rows[0].Name)
	require.Equal(t, 12, rows[0].Stock)
	require.Equal(t, "2.25", rows[0].Price.String())
	require.NotNil(t, rows[0].Cost)
	require.Equal(t, "1.1", rows[0].Cost.String())

	rows, err = ParseRows(`{"items":"none"}`)
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = ParseRows(`[{"name":`)
	require.Error(t, err)
}

func TestExtractPostsPhoto(t *testing.T) {
	var got extractRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"text": "```json\n[{\"name\":\"Water\",\"stock\":24,\"price\":0.8}]\n```",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, APIKey: "key"}, nil, nil)
	rows, err := c.Extract(context.Background(), []byte("jpeg"), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Water", rows[0].Name)
	require.Equal(t, "image/jpeg", got.MimeType)
	require.Equal(t, "anBlZw==", got.Image)
	require.Equal(t, Prompt, got.Prompt)
}

func TestExtractRequiresConfig(t *testing.T) {
	c := NewClient(Config{}, nil, nil)
	_, err := c.Extract(context.Background(), []byte("jpeg"), "image/jpeg")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.ErrorIs(t, err, shared.ErrExternalService)
}

func TestExtractRejectsEmptyPhoto(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://localhost:1", APIKey: "key"}, nil, nil)
	_, err := c.Extract(context.Background(), nil, "")
	require.ErrorIs(t, err, shared.ErrValidation)
}
