package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/mattsolo1/grove-macrocycle/pkg/agent"
	"github.com/mattsolo1/grove-macrocycle/pkg/exec"
	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
	"github.com/spf13/cobra"
)

// runFlags holds the flags of one `run` invocation.
type runFlags struct {
	inputFile string
	yes       bool
	until     string
	dryRun    bool
	timeout   time.Duration
	engine    string
}

// newExecutor builds the process executor for CLI engines.
var newExecutor = func() exec.CommandExecutor {
	return exec.NewRealCommandExecutor()
}

// NewRunCmd creates the `run` command.
func NewRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <macro> [input|-]",
		Short: "Run a macro",
		Long: `Runs a macro's steps in order, writing each llm step's output to
.macrocycle/cycles/<cycle>/steps/NN-<step>.md.

Input comes from --input-file, from stdin when the argument is "-" or input
is piped, or from the argument itself. Use --dry-run to see the steps first.

Exit status is 0 when the cycle completes, 3 when a gate is declined,
2 when no input was given and 1 on any failure.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMacro(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.inputFile, "input-file", "i", "", "Read the input from a file")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Approve every gate without asking")
	cmd.Flags().StringVar(&flags.until, "until", "", "Stop after this step id")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Preview the steps without executing")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Per-step agent timeout (overrides agent_timeout)")
	cmd.Flags().StringVar(&flags.engine, "engine", "", "Engine for macros that do not name one")

	return cmd
}

func runMacro(cmd *cobra.Command, args []string, flags *runFlags) error {
	a, err := loadApp(".")
	if err != nil {
		return err
	}
	if err := a.requireInitialized(); err != nil {
		return err
	}
	macroID := args[0]
	out := cmd.OutOrStdout()

	if flags.dryRun {
		p, err := orchestration.PreviewMacro(a.macros, macroID, "")
		if err != nil {
			return err
		}
		renderOutline(out, p)
		return nil
	}

	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}
	fromStdin := flags.inputFile == "" && (arg == "-" || (arg == "" && !stdinIsTerminal()))
	if fromStdin && !flags.yes {
		if m, err := a.macros.Load(macroID); err == nil {
			if gate := firstGate(m, flags.until); gate != "" {
				return &ExitError{
					Code: ExitFailure,
					Err:  fmt.Errorf("gate %q cannot be answered while stdin carries the input; pass --yes or use --input-file", gate),
				}
			}
		}
	}

	input, err := resolveInput(arg, flags.inputFile, cmd.InOrStdin(), stdinIsTerminal())
	if err != nil {
		return err
	}

	if err := a.loadEnv(); err != nil {
		return err
	}

	timeout, err := a.cfg.Timeout()
	if err != nil {
		return err
	}
	if flags.timeout > 0 {
		timeout = flags.timeout
	}
	defaultEngine := a.cfg.DefaultEngine
	if flags.engine != "" {
		defaultEngine = flags.engine
	}

	router := agent.NewRouter(agent.Config{
		DefaultEngine:    defaultEngine,
		Model:            a.cfg.Model,
		Timeout:          timeout,
		WorkDir:          a.ws.Root,
		Engines:          a.cfg.Engines,
		MockResponseFile: os.Getenv(agent.MockResponseEnv),
	}, newExecutor())

	confirmer := NewConsoleConfirmer(cmd.InOrStdin(), out)
	orch := orchestration.NewCycleOrchestrator(a.macros, a.cycles, router, confirmer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := orch.Run(ctx, orchestration.RunOptions{
		MacroID:     macroID,
		Input:       input,
		AutoApprove: flags.yes,
		StopAfter:   flags.until,
	})
	if res == nil {
		return runErr
	}

	printRunSummary(out, a.ws.Root, res, runErr)

	switch res.Status() {
	case orchestration.StatusCompleted:
		return runErr
	case orchestration.StatusStopped:
		return &ExitError{Code: ExitStopped, Err: fmt.Errorf("stopped at gate %q", res.Cycle.StoppedAt), Silent: true}
	default:
		if runErr == nil {
			runErr = errors.New("cycle did not complete")
		}
		return &ExitError{Code: ExitFailure, Err: runErr, Silent: true}
	}
}

// firstGate returns the first gate that runs before the stop-after step, or
// "" when none does.
func firstGate(m *macro.Macro, until string) string {
	for _, s := range m.Steps {
		if s.IsGate() {
			return s.ID
		}
		if s.ID == until {
			break
		}
	}
	return ""
}

// printRunSummary reports a terminal outcome with enough detail to inspect
// partial results.
func printRunSummary(w io.Writer, root string, res *orchestration.RunResult, runErr error) {
	c := res.Cycle
	dir := c.Dir
	if rel, err := filepath.Rel(root, c.Dir); err == nil {
		dir = rel
	}

	fmt.Fprintln(w)
	switch c.Status {
	case orchestration.StatusCompleted:
		msg := "Done."
		if res.EarlyStop {
			msg = fmt.Sprintf("Done (stopped after %q).", c.StopAfter)
		}
		fmt.Fprintf(w, "%s %s\n", theme.IconSuccess, color.GreenString(msg))
	case orchestration.StatusStopped:
		fmt.Fprintf(w, "%s %s\n", theme.IconWarning, color.YellowString("Stopped at gate %q.", c.StoppedAt))
	default:
		fmt.Fprintf(w, "%s %s\n", theme.IconError, color.RedString("Cycle failed."))
	}

	fmt.Fprintf(w, "Steps completed: %d\n", len(c.Steps))
	for _, a := range c.Artifacts() {
		fmt.Fprintf(w, "  %s\n", a)
	}
	fmt.Fprintf(w, "Cycle dir: %s\n", dir)
	if runErr != nil && c.Status == orchestration.StatusFailed {
		fmt.Fprintf(w, "Error: %v\n", runErr)
	}
}
