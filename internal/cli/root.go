// Package cli builds the nllbd command tree and wires configuration, the
// model runtime client, the manager and the job handler into each host.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nllbd/internal/config"
)

// rootOptions carries persistent flag values and the resolved config to
// subcommands.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	stdout io.Writer
	stderr io.Writer

	cfg config.Config
	log zerolog.Logger
}

func buildRootCmd(o *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "nllbd",
		Short:         "Serverless NLLB translation worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(o.stdout)
	root.SetErr(o.stderr)

	// Persistent flags -> Config
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "Config file (.yaml|.json|.toml); defaults to NLLBD_CONFIG")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults NLLBD_LOG_LEVEL or info)")
	pf.StringVar(&o.logFormat, "log-format", "", "Log format: json|console (defaults NLLBD_LOG_FORMAT or json)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return o.load(cmd)
	}

	root.AddCommand(newServeCmd(o), newLambdaCmd(o), newInvokeCmd(o), newLanguagesCmd(o))
	return root
}

// load resolves defaults < file < environment < flags and builds the logger.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Lookup("strict") != nil && flags.Changed("strict") {
		cfg.StrictLanguages, _ = flags.GetBool("strict")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	o.log = newLogger(cfg.LogLevel, cfg.LogFormat, o.stderr)
	return nil
}

// MainWithArgs runs the CLI and returns a process exit code.
func MainWithArgs(args []string, stdout, stderr io.Writer) int {
	o := &rootOptions{stdout: stdout, stderr: stderr, log: zerolog.Nop()}
	root := buildRootCmd(o)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// Main returns an exit code (0 for success, non-zero on error) for use by cmd/nllbd.
func Main() int { return MainWithArgs(os.Args[1:], os.Stdout, os.Stderr) }
