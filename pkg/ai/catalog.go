package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowdeck/pkg/models"
	"gopkg.in/yaml.v3"
)

var ErrUnknownNodeType = errors.New("unknown node type")

// Catalog is the set of node types the assistant may use.
type Catalog []models.NodeTypeDescription

type catalogFile struct {
	NodeTypes []models.NodeTypeDescription `json:"nodeTypes" yaml:"nodeTypes"`
}

// LoadCatalog reads node type descriptions from a YAML (.yaml, .yml) or JSON file. The file
// holds either a list of descriptions or an object with a nodeTypes list.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node type catalog: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeCatalog(data, yaml.Unmarshal)
	default:
		return decodeCatalog(data, json.Unmarshal)
	}
}

func decodeCatalog(data []byte, unmarshal func([]byte, any) error) (Catalog, error) {
	var list []models.NodeTypeDescription
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}

	var file catalogFile
	if err := unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode node type catalog: %w", err)
	}

	return file.NodeTypes, nil
}

// Lookup returns the description of the named node type.
func (c Catalog) Lookup(name string) (models.NodeTypeDescription, error) {
	for _, description := range c {
		if description.Name == name {
			return description, nil
		}
	}

	return models.NodeTypeDescription{}, fmt.Errorf("%w: %s", ErrUnknownNodeType, name)
}

// Filter keeps the node types named in names; an empty names keeps all of them.
func (c Catalog) Filter(names []string) Catalog {
	if len(names) == 0 {
		return c
	}

	allowed := make(map[string]struct{}, len(names))
	for _, name := range names {
		allowed[name] = struct{}{}
	}

	filtered := make(Catalog, 0, len(names))

	for _, description := range c {
		if _, ok := allowed[description.Name]; ok {
			filtered = append(filtered, description)
		}
	}

	return filtered
}
