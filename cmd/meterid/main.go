// Command meterid performs the Mode-C handshake against one meter and
// prints its identity, or lists candidate serial ports with --list.
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
	"github.com/edastools/modec/internal/portlist"
	"github.com/edastools/modec/linedriver"
	"github.com/edastools/modec/orchestrator"
)

func main() {
	common := cliflags.Register(pflag.CommandLine)
	listPorts := pflag.Bool("list", false, "List candidate serial ports and exit")
	pflag.Parse()

	if *common.Version {
		buildinfo.Print("meterid")
		return
	}

	lister := portlist.Lister{}
	if *listPorts {
		ports, err := lister.ListPorts()
		if err != nil {
			fmt.Fprintln(os.Stderr, "meterid:", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p.ID)
		}
		return
	}

	cfg, err := common.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "meterid:", err)
		pflag.Usage()
		os.Exit(1)
	}

	level, _ := log.ParseLevel(*common.LogLevel)
	sink := eventlog.New(os.Stderr, level)
	orch := orchestrator.New(linedriver.PosixPortFactory{}, lister, sink, nil)

	id, err := orch.Identify(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "meterid:", err)
		os.Exit(1)
	}

	fmt.Printf("flag=%s baud_char=%c gen=%s edas=%s model=%s\n", id.Flag, id.ProposedBaudChar, id.Gen, id.Edas, id.Model)
}
