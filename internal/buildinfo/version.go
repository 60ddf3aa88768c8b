// Package buildinfo prints the module's version, pulled from
// runtime/debug.ReadBuildInfo rather than baked-in constants, since
// module consumers build this from source.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

func settingOrDefault(bi *debug.BuildInfo, key, def string) string {
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return def
}

// Print writes a one-line version banner naming the binary, its module
// version, and the VCS revision it was built from.
func Print(binary string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Printf("%s - version unknown (no build info)\n", binary)
		return
	}

	version := bi.Main.Version
	if version == "" {
		version = "(devel)"
	}
	revision := settingOrDefault(bi, "vcs.revision", "unknown")
	if settingOrDefault(bi, "vcs.modified", "false") == "true" {
		revision += "-dirty"
	}
	fmt.Printf("%s %s (revision %s)\n", binary, version, revision)
}
