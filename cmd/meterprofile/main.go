// Command meterprofile reads a load profile (1, 2, or 3) over a date
// range and prints its records.
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
	profile := pflag.Int("profile", 1, "Load profile number, 1..3")
	start := pflag.String("start", "", "Range start, yy-mm-dd,hh:mm; empty with --end also empty means all history")
	end := pflag.String("end", "", "Range end, yy-mm-dd,hh:mm")
	pflag.Parse()

	if *common.Version {
		buildinfo.Print("meterprofile")
		return
	}

	cfg, err := common.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "meterprofile:", err)
		pflag.Usage()
		os.Exit(1)
	}

	rangeArg := ";"
	if *start != "" || *end != "" {
		rangeArg = *start + ";" + *end
	}

	level, _ := log.ParseLevel(*common.LogLevel)
	sink := eventlog.New(os.Stderr, level)
	orch := orchestrator.New(linedriver.PosixPortFactory{}, nil, sink, nil)

	frame, err := orch.ReadLoadProfile(context.Background(), cfg, *profile, rangeArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "meterprofile:", err)
		os.Exit(1)
	}

	fmt.Printf("columns:")
	for _, c := range frame.Columns {
		fmt.Printf(" %s*%s", c.OBIS, c.Unit)
	}
	fmt.Println()
	for _, rec := range frame.Records {
		fmt.Printf("%s %s:", rec.Date, rec.Time)
		for _, v := range rec.Values {
			fmt.Printf(" %s", v)
		}
		fmt.Println()
	}
}
