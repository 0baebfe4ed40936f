package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedProduct struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Category     string  `yaml:"category"`
	Price        string  `yaml:"price"`
	Cost         *string `yaml:"cost"`
	Stock        int     `yaml:"stock"`
	ReorderLevel int     `yaml:"reorderLevel"`
	ImageURL     string  `yaml:"imageUrl"`
}

type seedFile struct {
	Categories []string      `yaml:"categories"`
	Products   []seedProduct `yaml:"products"`
}

// loadSeed reads a catalog seed file, falling back to the bundled demo catalog.
func loadSeed(path string) (seedFile, error) {
	data := defaultSeed
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return seedFile{}, fmt.Errorf("read seed: %w", err)
		}
		data = raw
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

func (s seedFile) products() ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(s.Products))
	for i, p := range s.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("seed product %d price: %w", i+1, err)
		}
		product := catalog.Product{
			ID:           p.ID,
			Name:         p.Name,
			Category:     catalog.Category(p.Category),
			Price:        price,
			Stock:        p.Stock,
			ReorderLevel: p.ReorderLevel,
			ImageURL:     p.ImageURL,
		}
		if p.Cost != nil {
			cost, err := decimal.NewFromString(*p.Cost)
			if err != nil {
				return nil, fmt.Errorf("seed product %d cost: %w", i+1, err)
			}
			product.Cost = &cost
		}
		out = append(out, product)
	}
	return out, nil
}
