package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"elecetl/internal/config"
	"elecetl/internal/etlerr"
	"elecetl/internal/logger"
	"elecetl/internal/pipeline"
)

const successMessage = "ETL pipeline completed successfully!"

// errReported marks a failure whose message was already printed.
var errReported = errors.New("reported")

type options struct {
	configPath     string
	metricsBackend string
	pushgatewayURL string
	datadogAddr    string
	verbose        bool
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "elecetl",
		Short:         "Electricity sales and capability ETL",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "pipeline config path (.json, .yaml); defaults are used when empty")
	pf.StringVar(&opts.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides config)")
	pf.StringVar(&opts.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides config)")
	pf.StringVar(&opts.datadogAddr, "datadog-addr", "", "DogStatsD address (overrides config)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logs")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the ETL pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, stdout, stderr)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the pipeline configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := loadPipeline(opts, stderr)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Configuration is valid: %s\n", describeConfig(opts.configPath))
			return nil
		},
	})
	root.AddCommand(newSampleCmd(stdout))
	return root
}

// loadPipeline reads the config file (or defaults), applies environment and
// flag overrides, and lints the result. Issues are printed to w.
func loadPipeline(opts *options, w io.Writer) (config.Pipeline, error) {
	p := config.Default()
	if opts.configPath != "" {
		var err error
		if p, err = config.Load(opts.configPath); err != nil {
			return p, err
		}
	}
	if err := config.ApplyEnv(&p); err != nil {
		return p, err
	}
	if opts.metricsBackend != "" {
		p.Metrics.Backend = opts.metricsBackend
	}
	if opts.pushgatewayURL != "" {
		p.Metrics.PushgatewayURL = opts.pushgatewayURL
	}
	if opts.datadogAddr != "" {
		p.Metrics.DatadogAddr = opts.datadogAddr
	}
	if opts.verbose {
		p.Log.Level = "debug"
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return p, fmt.Errorf("configuration is invalid: %s", describeConfig(opts.configPath))
	}
	return p, nil
}

func runPipeline(cmd *cobra.Command, opts *options, stdout, stderr io.Writer) error {
	p, err := loadPipeline(opts, stderr)
	if err != nil {
		return err
	}

	log := logger.New(p.Log, stderr)
	ctx := logger.WithContext(cmd.Context(), log)

	flush := setupMetrics(p, log)
	_, runErr := pipeline.Run(ctx, p)
	flush()

	if runErr != nil {
		fmt.Fprintln(stdout, FailureMessage(runErr))
		return errReported
	}
	fmt.Fprintln(stdout, successMessage)
	return nil
}

// FailureMessage renders the one-line outcome for a failed run.
func FailureMessage(err error) string {
	switch etlerr.KindOf(err) {
	case etlerr.KindNotFound:
		return fmt.Sprintf("Pipeline failed: %v", err)
	case etlerr.KindSchemaMismatch, etlerr.KindMissingColumns:
		return fmt.Sprintf("Pipeline failed due to column mismatch: %v", err)
	default:
		return fmt.Sprintf("An error occurred: %v", err)
	}
}

func describeConfig(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
