// Package config handles simd.toml realm configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nooga/simdjs/pkg/errors"
	"github.com/nooga/simdjs/pkg/vm"
)

// Config represents a simd.toml realm configuration.
type Config struct {
	SIMD SIMDConfig `toml:"simd"`

	// Path is the file the configuration was loaded from (set at load time).
	Path string `toml:"-"`
}

// SIMDConfig selects which SIMD kinds a realm installs.
type SIMDConfig struct {
	// Enabled defaults to true when omitted.
	Enabled *bool `toml:"enabled"`
	// Kinds lists kind names (case-insensitive). Empty means every declared kind.
	Kinds []string `toml:"kinds"`
}

// Default returns a configuration that installs every declared kind.
func Default() *Config {
	return &Config{}
}

// Load parses a simd.toml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, (&errors.ConfigError{Path: path, Msg: "cannot read file"}).CausedBy(err)
	}
	c, err := Parse(string(data))
	if err != nil {
		if ce, ok := err.(*errors.ConfigError); ok {
			ce.Path = path
		}
		return nil, err
	}
	c.Path = path
	return c, nil
}

// Parse decodes configuration text and validates it.
func Parse(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, (&errors.ConfigError{Msg: "parse error"}).CausedBy(err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &errors.ConfigError{Msg: "unknown keys: " + strings.Join(keys, ", ")}
	}
	if _, err := c.SIMDKinds(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SIMDEnabled reports whether the SIMD family is installed at all.
func (c *Config) SIMDEnabled() bool {
	return c.SIMD.Enabled == nil || *c.SIMD.Enabled
}

// SIMDKinds resolves the configured kind names against the declared kinds,
// preserving configuration order.
func (c *Config) SIMDKinds() ([]*vm.SIMDTypeFactory, error) {
	if !c.SIMDEnabled() {
		return nil, nil
	}
	if len(c.SIMD.Kinds) == 0 {
		return vm.SIMDTypeFactories(), nil
	}
	seen := make(map[*vm.SIMDTypeFactory]bool, len(c.SIMD.Kinds))
	out := make([]*vm.SIMDTypeFactory, 0, len(c.SIMD.Kinds))
	for _, raw := range c.SIMD.Kinds {
		kn, err := ParseKindName(raw)
		if err != nil {
			return nil, err
		}
		f, ok := vm.LookupSIMDTypeFactory(kn.Canonical)
		if !ok {
			return nil, &errors.ConfigError{Path: c.Path, Msg: fmt.Sprintf("unknown SIMD kind %q", kn.Canonical)}
		}
		if seen[f] {
			return nil, &errors.ConfigError{Path: c.Path, Msg: fmt.Sprintf("SIMD kind %q listed twice", kn.Canonical)}
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// KindName is a parsed SIMD kind name such as Float32x4.
type KindName struct {
	Canonical string
	Element   string // "Float", "Int", "Uint" or "Bool"
	Bits      int
	Lanes     int
}

var kindNamePattern = regexp2.MustCompile(`^(Float|Int|Uint|Bool)(8|16|32)x(\d+)$`, regexp2.None)

// ParseKindName normalises and validates a kind name. "float32X4" and
// "Float32x4" both yield Float32x4.
func ParseKindName(raw string) (KindName, error) {
	name := cases.Lower(language.Und).String(strings.TrimSpace(raw))
	split := strings.IndexFunc(name, func(r rune) bool { return r < 'a' || r > 'z' })
	if split <= 0 {
		return KindName{}, &errors.ConfigError{Msg: fmt.Sprintf("malformed SIMD kind name %q", raw)}
	}
	name = cases.Title(language.Und).String(name[:split]) + name[split:]

	m, err := kindNamePattern.FindStringMatch(name)
	if err != nil {
		return KindName{}, (&errors.ConfigError{Msg: fmt.Sprintf("cannot match SIMD kind name %q", raw)}).CausedBy(err)
	}
	if m == nil {
		return KindName{}, &errors.ConfigError{Msg: fmt.Sprintf("malformed SIMD kind name %q", raw)}
	}
	bits, _ := strconv.Atoi(m.GroupByNumber(2).String())
	lanes, err := strconv.Atoi(m.GroupByNumber(3).String())
	if err != nil || lanes < 1 {
		return KindName{}, &errors.ConfigError{Msg: fmt.Sprintf("invalid lane count in SIMD kind name %q", raw)}
	}
	return KindName{
		Canonical: name,
		Element:   m.GroupByNumber(1).String(),
		Bits:      bits,
		Lanes:     lanes,
	}, nil
}
