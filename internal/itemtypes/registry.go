package itemtypes

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"arbor/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the set of folderable item types this deployment knows
// about, loaded once from the embedded YAML configuration
type Registry struct {
	types map[models.ItemType]TypeConfig
	mu    sync.RWMutex
}

// NewRegistry creates a registry and loads the embedded configuration
func NewRegistry() (*Registry, error) {
	r := &Registry{
		types: make(map[models.ItemType]TypeConfig),
	}

	data, err := configFiles.ReadFile("config/itemtypes.yaml")
	if err != nil {
		return nil, fmt.Errorf("read itemtypes config: %w", err)
	}

	var file typesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal itemtypes config: %w", err)
	}

	if len(file.Types) == 0 {
		return nil, fmt.Errorf("itemtypes config declares no types")
	}

	r.mu.Lock()
	for _, tc := range file.Types {
		if tc.Key == "" {
			r.mu.Unlock()
			return nil, fmt.Errorf("itemtypes config contains a type without a key")
		}
		r.types[models.ItemType(tc.Key)] = tc
	}
	r.mu.Unlock()

	return r, nil
}

// Enabled reports whether the type is declared and switched on
func (r *Registry) Enabled(t models.ItemType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.types[t]
	return ok && tc.Enabled
}

// DisplaySuffix returns the fallback display suffix for a type.
// The second return value is false for undeclared types.
func (r *Registry) DisplaySuffix(t models.ItemType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.types[t]
	if !ok {
		return "", false
	}
	return tc.DisplaySuffix, true
}

// Keys returns all declared type keys (enabled or not)
func (r *Registry) Keys() []models.ItemType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]models.ItemType, 0, len(r.types))
	for k := range r.types {
		keys = append(keys, k)
	}
	return keys
}
