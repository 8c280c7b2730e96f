package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ttokjang/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk seed layout. A bare list of products is accepted too.
type seedFile struct {
	Products []domain.Product `json:"products" yaml:"products"`
}

// LoadSeed reads a product list from a .json, .yaml or .yml file
func LoadSeed(path string) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeJSONSeed(data)
	case ".yaml", ".yml":
		return decodeYAMLSeed(data)
	default:
		return nil, fmt.Errorf("unsupported seed file extension %q", filepath.Ext(path))
	}
}

func decodeJSONSeed(data []byte) ([]domain.Product, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var products []domain.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, fmt.Errorf("decode json seed: %w", err)
		}
		return products, nil
	}

	var f seedFile
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, fmt.Errorf("decode json seed: %w", err)
	}
	return f.Products, nil
}

func decodeYAMLSeed(data []byte) ([]domain.Product, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode yaml seed: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var products []domain.Product
		if err := root.Decode(&products); err != nil {
			return nil, fmt.Errorf("decode yaml seed: %w", err)
		}
		return products, nil
	}

	var f seedFile
	if err := root.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode yaml seed: %w", err)
	}
	return f.Products, nil
}

// Seed loads path into the store when the catalog is empty and returns the
// number of products written. A non-empty catalog is left untouched.
func Seed(ctx context.Context, repo domain.CatalogRepository, path string) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	products, err := LoadSeed(path)
	if err != nil {
		return 0, err
	}
	if err := repo.Upsert(ctx, products); err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	return len(products), nil
}
