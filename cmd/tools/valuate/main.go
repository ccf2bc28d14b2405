// Command valuate runs the full valuation report on a saved provider record
// and prints the report as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"equity_valuation/pkg/core/assumption"
	"equity_valuation/pkg/core/config"
	"equity_valuation/pkg/core/pipeline"
	"equity_valuation/pkg/core/valuation"
	"equity_valuation/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "valuate: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: opts.logLevel, Out: stderr})

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Edits:     opts.edits,
		ApplyWACC: opts.applyWACC,
	}
	if opts.ebitda != 0 {
		req.EBITDA = &opts.ebitda
		req.EBITDAMultiple = opts.ebitdaMultiple
		req.Cash = opts.cash
	}
	if opts.assumptionsPath != "" {
		set, err := readAssumptions(opts.assumptionsPath)
		if err != nil {
			return err
		}
		req.Assumptions = set
	}

	var report *pipeline.Report
	if opts.symbol != "" {
		o := pipeline.NewOrchestrator(cfg, pipeline.FileSource{Dir: opts.dataDir})
		report, err = o.RunForSymbol(ctx, opts.symbol, req)
	} else {
		var payload []byte
		payload, err = os.ReadFile(opts.payloadPath)
		if err != nil {
			return fmt.Errorf("%w: %v", valuation.ErrDataUnavailable, err)
		}
		req.Payload = payload
		report, err = pipeline.NewOrchestrator(cfg, nil).Run(ctx, req)
	}
	if err != nil {
		return err
	}

	logWarnings(log, report)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func readAssumptions(path string) (assumption.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// accept either a bare set or a previous report
	var wrapped struct {
		Assumptions assumption.Set `json:"assumptions"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Assumptions) > 0 {
		return wrapped.Assumptions, nil
	}
	var set assumption.Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return set, nil
}

func logWarnings(log zerolog.Logger, report *pipeline.Report) {
	for _, w := range report.Summary.Warnings {
		log.Warn().Str("symbol", report.Symbol).Msg(w)
	}
	for _, line := range report.Summary.Lines {
		if line.Error != "" {
			log.Warn().Str("model", line.ModelName).Str("kind", line.ErrorKind).Msg(line.Error)
		}
	}
	if len(report.Normalized.Snapshot.Missing) > 0 {
		log.Info().Strs("missing", report.Normalized.Snapshot.Missing).Msg("Provider record has gaps; defaults applied")
	}
}

// exitCode distinguishes rejected inputs (2) from data problems (3) and
// everything else (1).
func exitCode(err error) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, valuation.ErrDataUnavailable):
		return 3
	case errors.Is(err, valuation.ErrInvalidInput):
		return 2
	}
	return 1
}
