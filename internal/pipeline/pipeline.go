// Package pipeline resolves which agents run, and in what order, for a run.
//
// Pipelines come from YAML files listing agent names, from Lua scripts that
// build the list from the operator's choices, or from the built-in default
// for the chosen focus.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/TheAllen/Acadia/internal/models"
)

type Pipeline struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Agents      []string  `yaml:"agents"`
	Settings    *Settings `yaml:"settings"`

	// Path is the file the pipeline was loaded from. Empty for built-ins.
	Path string `yaml:"-"`
}

// Settings override the corresponding configuration values for one
// pipeline. Zero values defer to the configuration.
type Settings struct {
	MaxBuildAttempts int    `yaml:"max_build_attempts"`
	BuildCommand     string `yaml:"build_command"`
}

// IsScript reports whether the agent list comes from a Lua script.
func (p *Pipeline) IsScript() bool {
	return IsLuaPipeline(p.Path)
}

func IsLuaPipeline(path string) bool {
	return strings.HasSuffix(path, ".lua")
}

// Default is the built-in pipeline for a focus. An unset focus is treated
// as Backend.
func Default(focus models.ProjectFocus) *Pipeline {
	switch focus {
	case models.FocusFrontend:
		return &Pipeline{
			Name:        "default-frontend",
			Description: "Describe, scope and generate a frontend",
			Agents:      []string{"manager", "architect", "frontend"},
			Settings:    &Settings{},
		}
	case models.FocusFullstack:
		return &Pipeline{
			Name:        "default-fullstack",
			Description: "Describe, scope and generate a backend and a frontend",
			Agents:      []string{"manager", "architect", "backend", "frontend"},
			Settings:    &Settings{},
		}
	default:
		return &Pipeline{
			Name:        "default-backend",
			Description: "Describe, scope and generate a backend webserver",
			Agents:      []string{"manager", "architect", "backend"},
			Settings:    &Settings{},
		}
	}
}

// Validate checks that p names at least one agent and only known ones.
// Repeated agents are allowed.
func Validate(p *Pipeline, known []string) error {
	if p.Name == "" {
		return fmt.Errorf("pipeline must have a name")
	}
	if len(p.Agents) == 0 {
		return fmt.Errorf("pipeline %q must list at least one agent", p.Name)
	}

	valid := make(map[string]bool, len(known))
	for _, k := range known {
		valid[k] = true
	}
	for i, name := range p.Agents {
		if !valid[name] {
			return fmt.Errorf("pipeline %q: agent %d %q is not one of %v", p.Name, i+1, name, known)
		}
	}

	if p.Settings != nil && p.Settings.MaxBuildAttempts < 0 {
		return fmt.Errorf("pipeline %q: max_build_attempts must not be negative", p.Name)
	}
	return nil
}
