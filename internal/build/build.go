// Package build runs an external build command against generated code.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bitfield/script"
	"go.uber.org/zap"
)

// Result is the opaque outcome of one build. Output holds combined stdout
// and stderr.
type Result struct {
	Passed     bool
	ExitStatus int
	Output     string
}

// Checker runs Command with {file} and {dir} replaced by the generated file
// and its directory. Commands are not run through a shell; use
// `sh -c "..."` when pipes or cd are needed.
type Checker struct {
	Command string
	logger  *zap.Logger
}

func NewChecker(command string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{Command: command, logger: logger.Named("build")}
}

// Check returns an error only when the command could not be attempted. A
// build that runs and fails is reported through Result.
func (c *Checker) Check(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(c.Command) == "" {
		return Result{}, fmt.Errorf("no build command configured")
	}

	cmd := strings.NewReplacer("{file}", path, "{dir}", filepath.Dir(path)).Replace(c.Command)
	c.logger.Info("running build check", zap.String("cmd", cmd))

	p := script.Exec(cmd)
	output, err := p.String()
	res := Result{
		Passed:     err == nil,
		ExitStatus: p.ExitStatus(),
		Output:     output,
	}
	if err != nil {
		c.logger.Warn("build check failed", zap.Int("exit_status", res.ExitStatus), zap.Error(err))
	}
	return res, nil
}
