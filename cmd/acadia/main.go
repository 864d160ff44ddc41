package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TheAllen/Acadia/internal/agent"
	"github.com/TheAllen/Acadia/internal/config"
	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/llm"
	"github.com/TheAllen/Acadia/internal/logging"
	"github.com/TheAllen/Acadia/internal/metrics"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/orchestrator"
	"github.com/TheAllen/Acadia/internal/pipeline"
	"github.com/TheAllen/Acadia/internal/probe"
	"github.com/TheAllen/Acadia/internal/storage"
	"github.com/TheAllen/Acadia/internal/templates"
	"github.com/TheAllen/Acadia/internal/tui"
)

// errReported means the failure was already shown to the operator.
var errReported = errors.New("run failed")

func main() {
	rootCmd := &cobra.Command{
		Use:           "acadia",
		Short:         "Agent pipeline that turns a project idea into code",
		Long:          "Acadia runs a pipeline of agents (manager, architect, backend, frontend) that turn a one-line project idea into a specification and generated code.",
		RunE:          runTUI,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newPipelinesCommand())

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// openStore loads the configuration and opens the run database.
func openStore() (*config.Config, *storage.Storage, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, store, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	orch := orchestrator.New(store, cfg.WorkspacesDir(), orchestrator.Env{})

	app := tui.NewApp(orch)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	return err
}

type runFlags struct {
	focus    string
	backend  string
	frontend string
	model    string
	pipeline string
	noExec   bool
}

// inputsFromFlags fills what the flags provide. The model stays unset when
// not given so the wizard can ask for it.
func inputsFromFlags(prompt string, f runFlags) (models.UserInputs, error) {
	input := models.UserInputs{
		ProjectToBuild:   strings.TrimSpace(prompt),
		BackendLanguage:  f.backend,
		FrontendLanguage: f.frontend,
	}
	if f.focus != "" {
		focus, ok := models.ParseFocus(f.focus)
		if !ok {
			return input, fmt.Errorf("invalid focus %q, expected one of %v", f.focus, models.Focuses())
		}
		input.Focus = focus
	}
	if f.model != "" {
		input.Model = models.ParseModelChoice(f.model)
	}
	return input, nil
}

func newRunCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Start a new run",
		Long:  "Start a new run. Anything not given on the command line is asked for interactively.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prompt string
			if len(args) == 1 {
				prompt = args[0]
			}

			input, err := inputsFromFlags(prompt, flags)
			if err != nil {
				return err
			}
			input, err = tui.RunWizard(input)
			if err != nil {
				return err
			}

			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer logging.Sync(logger)

			console := logging.NewConsole(os.Stdout)
			m := metrics.New()

			p, err := pipeline.Resolve(flags.pipeline, cfg.PipelineDirs(), input, agent.Names(), logger)
			if err != nil {
				return err
			}

			model, err := llm.NewClient(cfg, logger, m)
			if err != nil {
				return err
			}

			orch := orchestrator.New(store, cfg.WorkspacesDir(), orchestrator.Env{
				Model:            model,
				Templates:        templates.NewStore(cfg.TemplateDir),
				Prober:           probe.New(cfg.ProbeTimeout, cfg.ProbeRate, logger, m),
				BuildCommand:     cfg.BuildCommand,
				MaxBuildAttempts: cfg.MaxBuildAttempts,
				Metrics:          m,
				MetricsTextfile:  cfg.MetricsTextfile,
				Logger:           logger,
				Console:          console,
			})

			run, err := orch.StartRun(p, input)
			if err != nil {
				return fmt.Errorf("failed to start run: %w", err)
			}

			fmt.Printf("Created run #%d\n", run.ID)
			fmt.Printf("Workspace: %s\n", run.WorkspacePath)

			if flags.noExec {
				fmt.Println("Skipping execution (--no-exec)")
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			fmt.Printf("Executing pipeline %q (%s)...\n", p.Name, strings.Join(p.Agents, " -> "))
			if err := orch.Execute(ctx, run, p, input); err != nil {
				role, ok := aerrors.RoleOf(err)
				if !ok {
					role = "Acadia"
				}
				console.Error(role, err.Error())
				logger.Debug("run failed", zap.Int64("run_id", run.ID), zap.Error(err))
				return errReported
			}

			fmt.Printf("Run completed with status: %s\n", run.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.focus, "focus", "", "Project focus: Backend, Frontend or Fullstack")
	cmd.Flags().StringVar(&flags.backend, "backend", "", `Backend language, e.g. "Rust + Axum"`)
	cmd.Flags().StringVar(&flags.frontend, "frontend", "", `Frontend language, e.g. "JavaScript + React"`)
	cmd.Flags().StringVar(&flags.model, "model", "", "Model: GPT-4o or Llama3")
	cmd.Flags().StringVarP(&flags.pipeline, "pipeline", "p", "", "Named pipeline (default: built-in for the focus)")
	cmd.Flags().BoolVar(&flags.noExec, "no-exec", false, "Create run but don't execute")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show run status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			orch := orchestrator.New(store, cfg.WorkspacesDir(), orchestrator.Env{})

			run, err := orch.GetRun(runID)
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}

			fmt.Printf("Run #%d: %s\n", run.ID, run.PipelineName)
			fmt.Printf("Status: %s\n", run.Status)
			fmt.Printf("Prompt: %s\n", run.InitialPrompt)
			if run.Focus != "" {
				fmt.Printf("Focus: %s\n", run.Focus)
			}
			if run.Model != "" {
				fmt.Printf("Model: %s\n", run.Model)
			}
			fmt.Printf("Workspace: %s\n", run.WorkspacePath)
			if run.CurrentAgent != "" {
				fmt.Printf("Current Agent: %s\n", run.CurrentAgent)
			}
			if run.Error != "" {
				fmt.Printf("Error: %s\n", run.Error)
			}

			execs, err := orch.GetExecutionsForRun(runID)
			if err != nil {
				return fmt.Errorf("failed to get executions: %w", err)
			}

			if len(execs) > 0 {
				fmt.Println("\nAgents:")
				for _, e := range execs {
					fmt.Printf("  %d. %-20s %-9s %s\n", e.SequenceNum, e.Role, e.Status, e.FinalState)
				}
			}

			spec, err := orch.GetProjectSpec(runID)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("\nProject Specification:")
			fmt.Print(tui.RenderSpec(spec))
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			orch := orchestrator.New(store, cfg.WorkspacesDir(), orchestrator.Env{})

			runs, err := orch.ListRuns(limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No runs found")
				return nil
			}

			for _, run := range runs {
				fmt.Printf("#%-4d %-18s %-9s %-15s %s\n",
					run.ID,
					run.PipelineName,
					run.Status,
					humanize.Time(run.CreatedAt),
					tui.Truncate(run.InitialPrompt, 40),
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			orch := orchestrator.New(store, cfg.WorkspacesDir(), orchestrator.Env{})

			run, err := orch.GetRun(runID)
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}
			if run.Status == models.RunStatusRunning {
				return fmt.Errorf("run %d is still running", runID)
			}

			if err := orch.DeleteRun(runID); err != nil {
				return fmt.Errorf("failed to delete run: %w", err)
			}

			fmt.Printf("Deleted run #%d\n", runID)
			return nil
		},
	}
}

func newPipelinesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "List available pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			found, err := pipeline.LoadAll(cfg.PipelineDirs())
			if err != nil {
				return err
			}

			fmt.Println("Built-in:")
			for _, focus := range []models.ProjectFocus{models.FocusBackend, models.FocusFrontend, models.FocusFullstack} {
				p := pipeline.Default(focus)
				fmt.Printf("  %-20s %s\n", p.Name, strings.Join(p.Agents, " -> "))
			}

			if len(found) == 0 {
				return nil
			}

			names := make([]string, 0, len(found))
			for name := range found {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Println("\nFrom", strings.Join(cfg.PipelineDirs(), ", ")+":")
			for _, name := range names {
				p := found[name]
				agents := strings.Join(p.Agents, " -> ")
				if p.IsScript() {
					agents = "(lua) " + p.Path
				} else if err := pipeline.Validate(p, agent.Names()); err != nil {
					agents = "invalid: " + err.Error()
				}
				fmt.Printf("  %-20s %s\n", name, agents)
			}
			return nil
		},
	}
}
