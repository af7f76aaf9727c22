package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// Exit codes for qd.
const (
	ExitOK        = 0 // Answer written, or non-200 reported without --fail-on-status.
	ExitFailure   = 1 // Bad configuration, transport failure, malformed response.
	ExitAPIStatus = 2 // Non-200 response with --fail-on-status.
)

// exitCodeError carries a specific process exit code up to main
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// rootOptions holds the values bound to the global flags
type rootOptions struct {
	configPath   string
	envFile      string
	output       string
	model        string
	endpoint     string
	temperature  float64
	maxTokens    int
	timeout      time.Duration
	history      bool
	failOnStatus bool
	verbose      bool
	quiet        bool
	noColor      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err, os.Stderr))
	}
}

// exitCode reports err on w and maps it to a process exit code
func exitCode(err error, w io.Writer) int {
	var ece *exitCodeError
	if errors.As(err, &ece) {
		if ece.msg != "" {
			fmt.Fprintln(w, ece.msg)
		}
		return ece.code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return ExitFailure
}

// newRootCmd builds the qd command tree
func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: "Ask a chat completion API one random question and save the answer",
		Long: `qd picks a question at random from its prompt catalog, sends it to an
OpenAI-compatible chat completion endpoint and writes the reply to a file.
A non-200 response is printed and leaves the file untouched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), o.verbose, o.quiet)
			if o.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := o.newDispatcher(cmd)
			if err != nil {
				return err
			}
			_, err = d.Run(cmd.Context())
			return o.result(err)
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "config file (.yaml, .yml or .toml; default ./"+DefaultConfigFile+" if present)")
	f.StringVar(&o.envFile, "env-file", DefaultEnvFile, "dotenv file loaded before reading the environment")
	f.StringVarP(&o.output, "output", "o", "", "file that receives the answer (default "+DefaultOutputFile+")")
	f.StringVar(&o.model, "model", "", "model identifier")
	f.StringVar(&o.endpoint, "endpoint", "", "chat completion endpoint URL")
	f.Float64Var(&o.temperature, "temperature", 0, "sampling temperature")
	f.IntVar(&o.maxTokens, "max-tokens", 0, "maximum tokens in the answer")
	f.DurationVar(&o.timeout, "timeout", 0, "request timeout (0 waits forever)")
	f.BoolVar(&o.history, "history", false, "record each run under the history directory")
	f.BoolVar(&o.failOnStatus, "fail-on-status", false, "exit with code 2 on a non-200 response")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose output")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "suppress non-essential output")
	f.BoolVar(&o.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newCatalogCmd(o))
	rootCmd.AddCommand(newAskCmd(o))
	rootCmd.AddCommand(newHistoryCmd(o))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// loadConfig reads the config file and environment, then applies any
// flags the user set explicitly.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg, err := LoadConfig(o.configPath, o.envFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = o.output
	}
	if flags.Changed("model") {
		cfg.Model = o.model
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = o.endpoint
	}
	if flags.Changed("temperature") {
		cfg.Temperature = o.temperature
	}
	if flags.Changed("max-tokens") {
		cfg.MaxTokens = o.maxTokens
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("history") {
		cfg.History = o.history
	}
	return cfg, nil
}

func (o *rootOptions) newDispatcher(cmd *cobra.Command) (*Dispatcher, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return NewDispatcher(cmd.Context(), cfg, WithOutput(cmd.OutOrStdout()))
}

// result maps a dispatch error to the command's return value. A non-200
// response has already been printed and only fails the process when
// --fail-on-status is set.
func (o *rootOptions) result(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if o.failOnStatus {
			return &exitCodeError{code: ExitAPIStatus}
		}
		return nil
	}
	return err
}

func newCatalogCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the prompt catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), catalog)
			return nil
		},
	}
}

func newAskCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask",
		Short: "Pick a question interactively, then dispatch it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := o.newDispatcher(cmd)
			if err != nil {
				return err
			}

			cli := NewCLIHandler()
			i, err := cli.SelectPrompt(cmd.OutOrStdout(), d.Catalog(), nil)
			cli.Close()
			if errors.Is(err, errSelectionAborted) {
				fmt.Fprintln(cmd.OutOrStdout(), "\nExiting.")
				return nil
			}
			if err != nil {
				return err
			}

			_, err = d.Dispatch(cmd.Context(), i)
			return o.result(err)
		},
	}
}

func newHistoryCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			runs, err := listRuns(cfg.HistoryDir)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", AppName, Version)
		},
	}
}
