package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/TheAllen/Acadia/internal/models"
)

const scriptTimeout = 2 * time.Second

// LoadLua evaluates a Lua pipeline script. The script must define
// pipeline(input) and call add(name) once per agent, in order. It may also
// call log(msg) and set(key, value) for max_build_attempts or build_command.
func LoadLua(path string, input models.UserInputs, logger *zap.Logger) (*Pipeline, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pipeline{
		Name:     strings.TrimSuffix(filepath.Base(path), ".lua"),
		Path:     path,
		Settings: &Settings{},
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // Don't load any libraries by default
	})
	defer L.Close()

	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()
	L.SetContext(ctx)

	openSafeLibs(L)
	registerAPI(L, p, logger.Named("pipeline").With(zap.String("script", path)))

	if err := L.DoString(string(script)); err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	fn := L.GetGlobal("pipeline")
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("script must define a 'pipeline' function")
	}

	L.Push(fn)
	L.Push(inputTable(L, input))
	if err := L.PCall(1, 0, nil); err != nil {
		return nil, fmt.Errorf("pipeline script failed: %w", err)
	}

	return p, nil
}

// openSafeLibs loads only the safe standard libraries
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)

	// Remove dangerous base functions
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("module", lua.LNil)
	L.SetGlobal("print", lua.LNil) // Use log() instead

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Pipelines must be deterministic for a given input
	math := L.GetGlobal("math")
	if tbl, ok := math.(*lua.LTable); ok {
		L.SetField(tbl, "random", lua.LNil)
		L.SetField(tbl, "randomseed", lua.LNil)
	}
}

func registerAPI(L *lua.LState, p *Pipeline, logger *zap.Logger) {
	L.SetGlobal("add", L.NewFunction(func(L *lua.LState) int {
		p.Agents = append(p.Agents, L.CheckString(1))
		return 0
	}))

	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		logger.Info(L.CheckString(1))
		return 0
	}))

	L.SetGlobal("set", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		switch key {
		case "max_build_attempts":
			p.Settings.MaxBuildAttempts = L.CheckInt(2)
		case "build_command":
			p.Settings.BuildCommand = L.CheckString(2)
		case "description":
			p.Description = L.CheckString(2)
		default:
			L.ArgError(1, fmt.Sprintf("unknown setting %q", key))
		}
		return 0
	}))
}

func inputTable(L *lua.LState, input models.UserInputs) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "project", lua.LString(input.ProjectToBuild))
	L.SetField(tbl, "focus", lua.LString(input.Focus))
	L.SetField(tbl, "backend_language", lua.LString(input.BackendLanguage))
	L.SetField(tbl, "frontend_language", lua.LString(input.FrontendLanguage))
	L.SetField(tbl, "model", lua.LString(input.Model))
	L.SetField(tbl, "needs_backend", lua.LBool(input.NeedsBackend()))
	L.SetField(tbl, "needs_frontend", lua.LBool(input.NeedsFrontend()))
	return tbl
}
