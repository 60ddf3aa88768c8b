// Command meterexec runs an E2 execute action (e.g. demand reset)
// inside a programming session.
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
	"github.com/edastools/modec/linedriver"
	"github.com/edastools/modec/orchestrator"
)

func main() {
	common := cliflags.Register(pflag.CommandLine)
	code := pflag.String("code", "", "OBIS code to execute, e.g. C.51.0 for demand reset")
	pflag.Parse()

	if *common.Version {
		buildinfo.Print("meterexec")
		return
	}

	cfg, err := common.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "meterexec:", err)
		pflag.Usage()
		os.Exit(1)
	}
	if *code == "" {
		fmt.Fprintln(os.Stderr, "meterexec: --code is required")
		os.Exit(1)
	}

	level, _ := log.ParseLevel(*common.LogLevel)
	sink := eventlog.New(os.Stderr, level)
	orch := orchestrator.New(linedriver.PosixPortFactory{}, nil, sink, nil)

	if err := orch.Execute(context.Background(), cfg, cfg.Password, *code); err != nil {
		fmt.Fprintln(os.Stderr, "meterexec:", err)
		os.Exit(1)
	}
	fmt.Println("executed", *code)
}
