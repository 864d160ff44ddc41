package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/TheAllen/Acadia/internal/models"
)

// Resolve returns the pipeline to run. An empty name selects the default for
// the input's focus. Lua pipelines are evaluated against input. The result
// is validated against known agent names.
func Resolve(name string, dirs []string, input models.UserInputs, known []string, logger *zap.Logger) (*Pipeline, error) {
	var p *Pipeline

	if name == "" {
		p = Default(input.Focus)
	} else {
		pipelines, err := LoadAll(dirs)
		if err != nil {
			return nil, fmt.Errorf("failed to load pipelines: %w", err)
		}
		found, ok := pipelines[name]
		if !ok {
			return nil, fmt.Errorf("pipeline %q not found in %v", name, dirs)
		}
		p = found
		if p.IsScript() {
			p, err = LoadLua(p.Path, input, logger)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := Validate(p, known); err != nil {
		return nil, err
	}
	return p, nil
}
