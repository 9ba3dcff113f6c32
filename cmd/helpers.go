package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/mattsolo1/grove-macrocycle/pkg/cycle"
	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
	"github.com/mattsolo1/grove-macrocycle/pkg/workspace"
)

// app bundles the stores of one workspace.
type app struct {
	ws     *workspace.Workspace
	cfg    *MacrocycleConfig
	macros *macro.FileStore
	cycles *cycle.FileStore
}

// loadApp resolves the workspace and configuration for dir.
func loadApp(dir string) (*app, error) {
	cfg, err := loadMacrocycleConfig(dir)
	if err != nil {
		return nil, err
	}

	var ws *workspace.Workspace
	if cfg.WorkspaceDir != "" {
		ws, err = workspace.Discover(cfg.WorkspaceDir)
	} else {
		ws, err = workspace.Discover(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}

	return &app{
		ws:     ws,
		cfg:    cfg,
		macros: macro.NewFileStore(ws.MacrosDir()),
		cycles: cycle.NewFileStore(ws.CyclesDir()),
	}, nil
}

// requireInitialized fails with a hint when the workspace has no macros directory.
func (a *app) requireInitialized() error {
	if !a.ws.Initialized() {
		return fmt.Errorf("no %s directory in %s; run: macrocycle init", workspace.DirName, a.ws.Root)
	}
	return nil
}

// loadEnv loads the workspace .env file without overriding the environment.
func (a *app) loadEnv() error {
	if err := godotenv.Load(a.ws.EnvFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", a.ws.EnvFile(), err)
	}
	return nil
}

// stdinIsTerminal reports whether standard input is interactive.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resolveInput picks the run input: --input-file wins, then "-" or piped
// stdin, then the positional argument. Empty input is an error.
func resolveInput(arg, inputFile string, stdin io.Reader, interactive bool) (string, error) {
	var input string
	switch {
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		input = string(data)
	case arg == "-" || (arg == "" && !interactive):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		input = strings.TrimSpace(string(data))
	default:
		input = arg
	}

	if strings.TrimSpace(input) == "" {
		return "", &ExitError{
			Code: ExitMissingInput,
			Err:  errors.New("no input: provide it as an argument, with --input-file, or pipe it via stdin"),
		}
	}
	return input, nil
}
