package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Definition is a named service definition read from a file.
type Definition struct {
	Name        string
	Description string
	Definition  model.ServiceDefinition
}

type definitionFile struct {
	Name                    string `yaml:"name"`
	Description             string `yaml:"description"`
	model.ServiceDefinition `yaml:",inline"`
}

// LoadDefinitionFile reads one YAML definition. The service name defaults
// to the file name without extension.
func LoadDefinitionFile(path string) (Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read definition: %w", err)
	}

	file := definitionFile{}
	file.Replicas = 1
	if err := yaml.Unmarshal(b, &file); err != nil {
		return Definition{}, fmt.Errorf("failed to parse definition %s: %w", path, err)
	}

	name := file.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := file.ServiceDefinition.Validate(); err != nil {
		return Definition{}, fmt.Errorf("definition %s: %w", path, err)
	}

	return Definition{
		Name:        name,
		Description: file.Description,
		Definition:  file.ServiceDefinition,
	}, nil
}

// LoadDefinitionsDir reads every *.yml / *.yaml file in dir, sorted by
// file name. A missing dir yields no definitions.
func LoadDefinitionsDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read definitions dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, n := range names {
		def, err := LoadDefinitionFile(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	return defs, nil
}

// Register creates catalog entries for defs, skipping names that already
// exist. It returns the names that were created.
func Register(ctx context.Context, store Store, defs []Definition) ([]string, error) {
	var created []string

	for _, d := range defs {
		_, err := store.Create(ctx, model.CatalogEntry{
			Name:        d.Name,
			Description: d.Description,
			Definition:  d.Definition,
		})
		if errors.Is(err, model.ErrConflict) {
			log.Debug().Str("service", d.Name).Msg("catalog entry exists, skipping")
			continue
		} else if err != nil {
			return created, fmt.Errorf("failed to register %q: %w", d.Name, err)
		}

		created = append(created, d.Name)
	}

	return created, nil
}
