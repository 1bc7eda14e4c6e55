package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"hublink.dev/internal/audit"
	"hublink.dev/internal/config"
	"hublink.dev/internal/inspect"
	"hublink.dev/internal/obs"
)

const CliName = "hubctl"

var errUsage = errors.New("usage error")

// app carries global flags and the collaborators shared by subcommands.
type app struct {
	configPath string
	profile    string
	metrics    bool

	cfg *config.Config
	svc inspect.Service

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   CliName,
		Short: CliName + " inspects hub connection descriptors and twin metadata",
		Long: CliName + " validates hub connection descriptors, signs service tokens and " +
			"extracts write metadata from twin property documents.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	addPersistentStringFlag(root, FlagConfig, &a.configPath, config.DefaultPath(), "Path to the YAML config file")
	addPersistentStringFlag(root, FlagProfile, &a.profile, "", "Connection profile to use (defaults to default_profile)")
	root.PersistentFlags().BoolVar(&a.metrics, FlagMetrics, false, "Dump Prometheus metrics to stderr on exit")

	root.AddCommand(
		newParseCmd(a),
		newTokenCmd(a),
		newMetadataCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := obs.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	obs.Init()
	obs.InitBuildInfo(version, commit)

	a.cfg = cfg
	if a.svc == nil {
		a.svc = inspect.New()
	}
	obs.Log(obs.LevelDebug, "config loaded", map[string]any{
		"config":   a.configPath,
		"profiles": cfg.ProfileNames(),
		"command":  cmd.Name(),
	})
	return nil
}

// descriptor returns the descriptor named on the command line, read from
// stdin for "-", or the one of the selected profile.
func (a *app) descriptor(ctx context.Context, args []string) (context.Context, string, error) {
	if len(args) > 0 {
		if args[0] != "-" {
			return ctx, args[0], nil
		}
		line, err := bufio.NewReader(a.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return ctx, "", fmt.Errorf("read descriptor from stdin: %w", err)
		}
		return ctx, strings.TrimRight(line, "\r\n"), nil
	}
	name, p, err := a.cfg.Profile(a.profile)
	if err != nil {
		return ctx, "", err
	}
	return audit.WithProfile(ctx, name), p.ConnectionString, nil
}

func checkOutput(output string) error {
	switch output {
	case OutputText, OutputJSON:
		return nil
	}
	return fmt.Errorf("%w: --%s must be %q or %q", errUsage, FlagOutput, OutputText, OutputJSON)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)

	code := 0
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", CliName, err)
		code = 1
	}
	if a.metrics {
		if err := obs.WriteMetrics(stderr); err != nil {
			fmt.Fprintf(stderr, "%s: write metrics: %v\n", CliName, err)
		}
	}
	return code
}
