package agent

import (
	"fmt"
	"sort"

	aerrors "github.com/TheAllen/Acadia/internal/errors"
)

// Pipeline names of the built-in agents.
const (
	NameManager   = "manager"
	NameArchitect = "architect"
	NameBackend   = "backend"
	NameFrontend  = "frontend"
)

var constructors = map[string]func(Deps) Agent{
	NameManager:   func(d Deps) Agent { return NewManager(d) },
	NameArchitect: func(d Deps) Agent { return NewArchitect(d) },
	NameBackend:   func(d Deps) Agent { return NewBackend(d) },
	NameFrontend:  func(d Deps) Agent { return NewFrontend(d) },
}

// Build returns a fresh agent for a pipeline name.
func Build(name string, deps Deps) (Agent, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", aerrors.ErrUnknownAgent, name)
	}
	return ctor(deps), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
