// Command meterwrite authenticates into a programming session and
// applies one or more OBIS writes.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

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
	sets := pflag.StringArray("set", nil, "code=value to write; repeatable")
	pflag.Parse()

	if *common.Version {
		buildinfo.Print("meterwrite")
		return
	}

	cfg, err := common.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "meterwrite:", err)
		pflag.Usage()
		os.Exit(1)
	}
	if cfg.Password == "" {
		fmt.Fprintln(os.Stderr, "meterwrite: --password is required")
		os.Exit(1)
	}
	if len(*sets) == 0 {
		fmt.Fprintln(os.Stderr, "meterwrite: at least one --set code=value is required")
		os.Exit(1)
	}

	ops := make([]orchestrator.WriteOp, 0, len(*sets))
	for _, s := range *sets {
		code, value, ok := strings.Cut(s, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "meterwrite: malformed --set %q, want code=value\n", s)
			os.Exit(1)
		}
		ops = append(ops, orchestrator.WriteOp{Code: code, Value: value})
	}

	level, _ := log.ParseLevel(*common.LogLevel)
	sink := eventlog.New(os.Stderr, level)
	orch := orchestrator.New(linedriver.PosixPortFactory{}, nil, sink, nil)

	if err := orch.AuthenticateAndWrite(context.Background(), cfg, cfg.Password, ops); err != nil {
		fmt.Fprintln(os.Stderr, "meterwrite:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d value(s)\n", len(ops))
}
