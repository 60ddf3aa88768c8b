// Command meterread performs a short or full readout and prints the
// parsed Reading.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/edastools/modec/eventlog"
	"github.com/edastools/modec/internal/buildinfo"
	"github.com/edastools/modec/internal/cliflags"
	"github.com/edastools/modec/internal/render"
	"github.com/edastools/modec/linedriver"
	"github.com/edastools/modec/orchestrator"
	"github.com/edastools/modec/session"
)

func main() {
	common := cliflags.Register(pflag.CommandLine)
	full := pflag.Bool("full", false, "Full readout (mode 0 plus history/warning/outage/technical-quality) instead of short (mode 6)")
	withHistory := pflag.Bool("with-history", true, "When --full, also fetch the history packet (mode 7)")
	withWarning := pflag.Bool("with-warning", true, "When --full, also fetch the warning packet (mode 8)")
	withOutage := pflag.Bool("with-outage", true, "When --full, also fetch the outage packet (mode 9)")
	withQuality := pflag.Bool("with-quality", false, "When --full, also fetch the technical-quality packet (mode 5)")
	pflag.Parse()

	if *common.Version {
		buildinfo.Print("meterread")
		return
	}

	cfg, err := common.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "meterread:", err)
		pflag.Usage()
		os.Exit(1)
	}

	level, _ := log.ParseLevel(*common.LogLevel)
	sink := eventlog.New(os.Stderr, level)
	orch := orchestrator.New(linedriver.PosixPortFactory{}, nil, sink, nil)

	ctx := context.Background()
	if !*full {
		reading, err := orch.ReadShort(ctx, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "meterread:", err)
			os.Exit(1)
		}
		render.Reading(os.Stdout, reading)
		return
	}

	var extras []session.ReadoutMode
	if *withHistory {
		extras = append(extras, session.ModeHistory)
	}
	if *withWarning {
		extras = append(extras, session.ModeWarning)
	}
	if *withOutage {
		extras = append(extras, session.ModeOutage)
	}
	if *withQuality {
		extras = append(extras, session.ModeTechnicalQuality)
	}

	reading, err := orch.ReadFull(ctx, cfg, extras)
	if err != nil {
		fmt.Fprintln(os.Stderr, "meterread:", err)
		os.Exit(1)
	}
	render.Reading(os.Stdout, reading)
}
