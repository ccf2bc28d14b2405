package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"equity_valuation/pkg/core/assumption"
)

// editsFlag collects repeated -set field=value flags.
type editsFlag assumption.Edits

func (e editsFlag) String() string {
	keys := make([]string, 0, len(e))
	for f := range e {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, e[assumption.Field(k)]))
	}
	return strings.Join(parts, ",")
}

func (e editsFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected field=value, got %q", s)
	}
	f, err := assumption.ParseField(strings.TrimSpace(name))
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", f, err)
	}
	e[f] = v
	return nil
}

type options struct {
	configPath      string
	payloadPath     string
	symbol          string
	dataDir         string
	assumptionsPath string
	edits           assumption.Edits
	applyWACC       bool
	ebitda          float64
	ebitdaMultiple  float64
	cash            float64
	logLevel        string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{edits: assumption.Edits{}}

	fs := flag.NewFlagSet("valuate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "config/valuation.yaml", "path to the YAML configuration file")
	fs.StringVar(&opts.payloadPath, "payload", "", "provider record file")
	fs.StringVar(&opts.symbol, "symbol", "", "symbol to read from -dir instead of -payload")
	fs.StringVar(&opts.dataDir, "dir", "data", "directory of <SYMBOL>.json provider records")
	fs.StringVar(&opts.assumptionsPath, "assumptions", "", "previous assumption set (JSON) whose USER fields are kept")
	fs.Var(editsFlag(opts.edits), "set", "assumption edit field=value (repeatable)")
	fs.BoolVar(&opts.applyWACC, "apply-wacc", false, "recompute wacc from the WACC inputs and pin it")
	fs.Float64Var(&opts.ebitda, "ebitda", 0, "EBITDA for the EV/EBITDA model (0 skips it)")
	fs.Float64Var(&opts.ebitdaMultiple, "ebitda-multiple", 10, "EV/EBITDA multiple")
	fs.Float64Var(&opts.cash, "cash", 0, "cash added back in the EV/EBITDA bridge")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level for stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if (opts.payloadPath == "") == (opts.symbol == "") {
		return nil, fmt.Errorf("exactly one of -payload or -symbol is required")
	}
	return opts, nil
}
