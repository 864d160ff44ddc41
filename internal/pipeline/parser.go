package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func Parse(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline YAML: %w", err)
	}

	if p.Settings == nil {
		p.Settings = &Settings{}
	}
	p.Path = path

	return &p, nil
}

// LoadAll reads every pipeline in dirs. Earlier directories win when two
// pipelines share a name. Lua pipelines are listed but not evaluated.
func LoadAll(dirs []string) (map[string]*Pipeline, error) {
	pipelines := make(map[string]*Pipeline)

	for _, dir := range dirs {
		if err := loadFromDir(dir, pipelines); err != nil {
			// Skip directories that don't exist
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
	}

	return pipelines, nil
}

func loadFromDir(dir string, pipelines map[string]*Pipeline) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		path := filepath.Join(dir, name)
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)

		var p *Pipeline
		switch ext {
		case ".yaml", ".yml":
			p, err = Parse(path)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			// Use pipeline name from file, or filename without extension
			if p.Name == "" {
				p.Name = base
			}
		case ".lua":
			p = &Pipeline{Name: base, Path: path, Settings: &Settings{}}
		default:
			continue
		}

		if _, exists := pipelines[p.Name]; exists {
			continue
		}
		pipelines[p.Name] = p
	}

	return nil
}
