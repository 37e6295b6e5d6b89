package config

import (
	"fmt"
	"strings"

	"github.com/xplshn/exprc/pkg/cli"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatSkipUnknown Feature = iota
	FeatStrictVars
	FeatCount
)

type Warning int

const (
	WarnUnknownChar Warning = iota
	WarnNoEffect
	WarnOverflow
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features      map[Feature]Info
	Warnings      map[Warning]Info
	FeatureMap    map[string]Feature
	WarningMap    map[string]Warning
	StdName       string
	WordSize      int
	NumRegs       int
	Reserved      []string
	TableSize     int
	BackendName   string
	BackendTarget string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:    make(map[Feature]Info),
		Warnings:    make(map[Warning]Info),
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		StdName:     "classic",
		WordSize:    4,
		NumRegs:     8,
		Reserved:    []string{"x", "y", "z"},
		TableSize:   64,
		BackendName: "text",
	}

	features := map[Feature]Info{
		FeatSkipUnknown: {"skip-unknown", true, "Silently skip characters that start no token."},
		FeatStrictVars:  {"strict-vars", false, "Reading a variable that was never assigned is an error."},
	}

	warnings := map[Warning]Info{
		WarnUnknownChar: {"unknown-char", true, "Warn when an unrecognized character is skipped."},
		WarnNoEffect:    {"no-effect", false, "Warn about statements that contain no assignment."},
		WarnOverflow:    {"overflow", true, "Warn when an integer literal does not fit in a machine word."},
		WarnPedantic:    {"pedantic", false, "Issue all warnings demanded by the strict standard."},
		WarnExtra:       {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget selects the backend and, for qbe, the target ABI.
func (c *Config) SetTarget(goos, goarch, backend, target string) error {
	switch backend {
	case "", "text":
		c.BackendName = "text"
	case "qbe":
		c.BackendName = "qbe"
		if target == "" {
			target = libqbe.DefaultTarget(goos, goarch)
		}
		c.BackendTarget = target
	default:
		return fmt.Errorf("unsupported backend '%s'. Supported: 'text', 'qbe'", backend)
	}
	return nil
}

// MemorySize is the number of addressable bytes backing the symbol table.
func (c *Config) MemorySize() int { return c.TableSize * c.WordSize }

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

func (c *Config) ApplyStd(stdName string) error {
	isPedantic := c.IsWarningEnabled(WarnPedantic)

	type stdSettings struct {
		feature      Feature
		classicValue bool
		strictValue  bool
	}

	settings := []stdSettings{
		{FeatSkipUnknown, !isPedantic, false},
		{FeatStrictVars, false, true},
	}

	switch stdName {
	case "classic":
		for _, s := range settings {
			c.SetFeature(s.feature, s.classicValue)
		}
		c.SetWarning(WarnNoEffect, isPedantic)
	case "strict":
		for _, s := range settings {
			c.SetFeature(s.feature, s.strictValue)
		}
		c.SetWarning(WarnNoEffect, true)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'classic', 'strict'", stdName)
	}
	c.StdName = stdName
	return nil
}

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enable)
		}
	}
}

// ProcessFlags applies -W/-F style flags in order, with -Wall/-Wno-all first
// so that specific flags can override them.
func (c *Config) ProcessFlags(flags []string) {
	for _, f := range flags {
		if f == "-Wall" || f == "-Wno-all" {
			c.applyFlag(f)
		}
	}
	for _, f := range flags {
		if f != "-Wall" && f != "-Wno-all" {
			c.applyFlag(f)
		}
	}
}

// SetupFlagGroups registers one -W and one -F group entry per warning and
// feature. The returned slices are indexed by Warning and Feature.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description, Default: info.Enabled,
			Enabled: new(bool), Disabled: new(bool),
		}
	}

	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description, Default: info.Enabled,
			Enabled: new(bool), Disabled: new(bool),
		}
	}

	fs.AddFlagGroup("Warnings", "warning", warningFlags)
	fs.AddFlagGroup("Features", "feature", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies the parsed -W/-F group values into the configuration.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
