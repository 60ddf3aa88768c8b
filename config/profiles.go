// Package config loads the meter-class profile catalog: per-manufacturer
// defaults (cap baud, retries, connection kind, etc.) keyed by the
// three-letter flag a meter reports during identification. A search-path
// list, a single YAML unmarshal, and graceful degradation to "no
// catalog" rather than a fatal error when the file is missing.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edastools/modec/session"
)

// Profile is one manufacturer-class's recommended defaults. Empty fields
// mean "use the library default" — a profile only overrides what it
// states.
type Profile struct {
	Flag           string                `yaml:"flag"`
	CapBaud        int                   `yaml:"cap_baud"`
	Retries        int                   `yaml:"retries"`
	ConnectionKind session.ConnectionKind `yaml:"connection_kind"`
	Password       string                `yaml:"password"`
}

// Catalog is the parsed meterclasses.yaml content, indexed by Flag.
type Catalog struct {
	byFlag map[string]Profile
}

// searchLocations mirrors deviceid.go's "current directory, then a
// handful of install prefixes" order.
var searchLocations = []string{
	"meterclasses.yaml",
	"config/meterclasses.yaml",
	"/etc/modec/meterclasses.yaml",
	"/usr/local/share/modec/meterclasses.yaml",
	"/usr/share/modec/meterclasses.yaml",
}

// Load searches searchLocations in order and parses the first file it
// finds. If none exist it returns an empty Catalog, not an error — a
// missing catalog simply means every meter uses the library defaults.
func Load() (*Catalog, error) {
	for _, path := range searchLocations {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		return parse(data)
	}
	return &Catalog{byFlag: map[string]Profile{}}, nil
}

// LoadFile parses a specific path, bypassing the search list — used by
// the --profile-file flag that internal/cliflags registers for every
// cmd/meter* binary.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var doc struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing meter class catalog: %w", err)
	}
	c := &Catalog{byFlag: make(map[string]Profile, len(doc.Profiles))}
	for _, p := range doc.Profiles {
		c.byFlag[p.Flag] = p
	}
	return c, nil
}

// Lookup returns the profile registered for a three-letter flag.
func (c *Catalog) Lookup(flag string) (Profile, bool) {
	p, ok := c.byFlag[flag]
	return p, ok
}

// Apply overlays a profile's non-zero fields onto cfg and returns the
// result; cfg itself is left untouched.
func (p Profile) Apply(cfg session.Config) session.Config {
	if p.CapBaud != 0 {
		cfg.CapBaud = p.CapBaud
	}
	if p.Retries != 0 {
		cfg.Retries = p.Retries
	}
	if p.ConnectionKind != "" {
		cfg.ConnectionKind = p.ConnectionKind
	}
	if p.Password != "" {
		cfg.Password = p.Password
	}
	return cfg
}
