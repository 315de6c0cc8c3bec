// Command lst-generate-products drives the LST product generation stages
// for one scene metadata file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/lst-products/internal/config"
	"github.com/banshee-data/lst-products/internal/exitcode"
	"github.com/banshee-data/lst-products/internal/logging"
	"github.com/banshee-data/lst-products/internal/pipeline"
	"github.com/banshee-data/lst-products/internal/stage"
	"github.com/banshee-data/lst-products/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		resolver: config.NewResolver(),
		builder:  stage.NewRealCommandBuilder(),
	}
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// app holds the process dependencies so tests can swap them out.
type app struct {
	stdout   io.Writer
	stderr   io.Writer // log records and usage text
	resolver *config.Resolver
	builder  stage.CommandBuilder
}

type options struct {
	xml          string
	keep         bool
	debug        bool
	showVersion  bool
	dryRun       bool
	logFormat    string
	stageTimeout time.Duration
	configName   string
}

// errUsage marks command line errors already reported to the user.
var errUsage = errors.New("usage error")

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet(version.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.xml, "xml", "", "Input metadata XML file (required)")
	fs.BoolVar(&opts.keep, "keep-intermediate-products", false, "Keep intermediate products")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging and pass --debug to every stage")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print the stage plan as YAML without running anything")
	fs.StringVar(&opts.logFormat, "log-format", logging.FormatText, "Log format: text or json")
	fs.DurationVar(&opts.stageTimeout, "stage-timeout", 0, "Per-stage time limit (0 means no limit)")
	fs.StringVar(&opts.configName, "config", config.DefaultFilename, "Configuration file name under $HOME/.usgs/espa")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s --xml <file> [options]\n\nOptions:\n", version.Name)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, err
		}
		return opts, errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return opts, errUsage
	}
	if opts.showVersion {
		return opts, nil
	}
	if opts.xml == "" {
		fmt.Fprintln(stderr, "Error: --xml is required")
		fs.Usage()
		return opts, errUsage
	}
	if opts.stageTimeout < 0 {
		fmt.Fprintln(stderr, "Error: --stage-timeout must not be negative")
		return opts, errUsage
	}
	format, err := logging.ParseFormat(opts.logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return opts, errUsage
	}
	opts.logFormat = format
	return opts, nil
}

func (a *app) run(ctx context.Context, args []string) int {
	opts, err := parseArgs(args, a.stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitcode.Success
		}
		return exitcode.Usage
	}
	if opts.showVersion {
		fmt.Fprintln(a.stdout, version.Text())
		return exitcode.Success
	}

	runID := logging.NewRunID()
	logger := logging.WithRun(logging.New(a.stderr, logging.Options{Debug: opts.debug, Format: opts.logFormat}), runID)
	log := logging.Component(logger, "cli")

	cfg, err := a.resolver.Resolve(opts.configName)
	if err != nil {
		log.Error("invalid processing configuration", "error", err)
		return exitcode.InvalidConfig
	}
	log.Debug("processing configuration",
		"omp_num_threads", cfg.ProcessCount,
		"lst_data_path", cfg.DataPath,
		"lst_aux_path", cfg.AuxPath,
		"modtran_data_path", cfg.ModtranDataPath,
		"aster_ged_server_name", cfg.AsterGEDServerName,
	)
	log.Debug("run options", "xml", opts.xml, "keep_intermediate_products", opts.keep)

	params := pipeline.Params{
		XMLFilename:              opts.xml,
		Debug:                    opts.debug,
		KeepIntermediateProducts: opts.keep,
		Config:                   *cfg,
	}
	invoker := stage.NewInvoker(a.builder, logging.Component(logger, "stage"))
	orch := pipeline.New(pipeline.Stages(params), invoker, logging.Component(logger, "pipeline"),
		pipeline.Options{StageTimeout: opts.stageTimeout})

	if opts.dryRun {
		if err := pipeline.WritePlan(a.stdout, pipeline.Plan{RunID: runID, Stages: orch.Plan()}); err != nil {
			log.Error("failed to write plan", "error", err)
			return exitcode.StageFailure
		}
		return exitcode.Success
	}

	out := orch.Run(ctx)
	if out.State != pipeline.Completed {
		log.Error("LST processing failed", "stage", out.FailedStage, "error", out.Err())
		return exitcode.StageFailure
	}
	log.Info("LST processing complete", "xml", opts.xml, "duration", out.Duration)
	return exitcode.Success
}
