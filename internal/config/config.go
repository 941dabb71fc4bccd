// Package config provides configuration types and defaults for imgtidy.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Default constants
const (
	// DefaultTargetExt is the extension of converted artifacts.
	DefaultTargetExt = ".webp"

	// DefaultProfile is the optimize profile used when none is selected.
	DefaultProfile = ProfileAggressive

	// DefaultMaxDimension caps the longer side of general assets.
	DefaultMaxDimension = 1920

	// DefaultPatternMaxDimension caps tiled/background assets, which tolerate
	// more downscaling than hero art.
	DefaultPatternMaxDimension = 1024

	// DefaultQuality is the lossy quality for aggressive optimization (0-100).
	DefaultQuality = 75

	// DefaultHighQuality is the lossy quality for high-fidelity conversion (0-100).
	DefaultHighQuality = 80

	// DefaultEffort is the WebP method (0-6, higher is slower/smaller).
	DefaultEffort = 6

	// DefaultCompressEffort matches the encoder's own default method.
	DefaultCompressEffort = 4

	// DefaultCompressMinBytes is the size above which compress touches a file.
	DefaultCompressMinBytes int64 = 512 << 10

	// DefaultFilter is the resampling filter used when shrinking.
	DefaultFilter = "lanczos"

	// DefaultWorkers processes files one at a time.
	DefaultWorkers = 1

	// MaxQuality and MaxEffort bound the encoder parameters.
	MaxQuality = 100
	MaxEffort  = 6
)

// Profile names.
const (
	ProfileAggressive   = "aggressive"
	ProfileHighFidelity = "high-fidelity"
	ProfileCompress     = "compress"
)

// Rule scopes.
const (
	ScopePath = "path"
	ScopeName = "name"
)

// ErrUnknownPolicy is returned when a profile or rule names a missing policy.
var ErrUnknownPolicy = errors.New("unknown policy")

// FilterNames lists the accepted resampling filter names.
var FilterNames = []string{"lanczos", "catmullrom", "mitchell", "linear", "box", "nearest"}

// Policy holds the size and quality parameters applied to one class of files.
type Policy struct {
	MaxDimension   int    `toml:"max_dimension" yaml:"max_dimension"`       // 0 disables resizing
	Quality        int    `toml:"quality" yaml:"quality"`                   // 0-100
	Effort         int    `toml:"effort" yaml:"effort"`                     // 0-6
	MinSourceBytes int64  `toml:"min_source_bytes" yaml:"min_source_bytes"` // sources at or below this size are skipped
	DeleteSource   bool   `toml:"delete_source" yaml:"delete_source"`
	Filter         string `toml:"filter" yaml:"filter"`
}

// Rule selects a policy for files whose path or name contains any of the
// given substrings (case-insensitive).
type Rule struct {
	Name     string   `toml:"name" yaml:"name"`
	Contains []string `toml:"contains" yaml:"contains"`
	Scope    string   `toml:"scope" yaml:"scope"`
	Policy   string   `toml:"policy" yaml:"policy"`
}

// Profile groups the extension allow-set, default policy and rules used by optimize.
type Profile struct {
	Extensions    []string `toml:"extensions" yaml:"extensions"`
	DefaultPolicy string   `toml:"default_policy" yaml:"default_policy"`
	Rules         []Rule   `toml:"rules" yaml:"rules"`
}

// SpecialName maps a name fragment to a fixed replacement name for rename.
type SpecialName struct {
	Fragment string `toml:"fragment" yaml:"fragment"`
	Name     string `toml:"name" yaml:"name"`
}

// Config holds all configuration for an imgtidy run.
type Config struct {
	// Roots are the directory trees to process.
	Roots []string

	// TargetExt is the converted-format extension, with leading dot.
	TargetExt string

	// Optimize settings
	Profile  string
	Profiles map[string]Profile
	Policies map[string]Policy
	Workers  int

	// CleanupExtensions are source formats deleted once a converted sibling exists.
	CleanupExtensions []string

	// RenameSpecial is checked in order before generic ASCII folding.
	RenameSpecial []SpecialName

	// ReservedNames are removed by dedupe-nul (case-insensitive exact match).
	ReservedNames []string

	// DryRun reports destructive actions without performing them.
	DryRun bool

	// Logging options
	LogDir  string
	NoLog   bool
	Verbose bool
}

// DefaultPolicies returns the built-in policies.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		"aggressive": {
			MaxDimension: DefaultMaxDimension,
			Quality:      DefaultQuality,
			Effort:       DefaultEffort,
			Filter:       DefaultFilter,
		},
		"aggressive-pattern": {
			MaxDimension: DefaultPatternMaxDimension,
			Quality:      DefaultQuality,
			Effort:       DefaultEffort,
			Filter:       DefaultFilter,
		},
		"high-fidelity": {
			Quality:      DefaultHighQuality,
			Effort:       DefaultEffort,
			DeleteSource: true,
			Filter:       DefaultFilter,
		},
		"compress": {
			Quality:        DefaultHighQuality,
			Effort:         DefaultCompressEffort,
			MinSourceBytes: DefaultCompressMinBytes,
			Filter:         DefaultFilter,
		},
		"compress-background": {
			Quality: DefaultHighQuality,
			Effort:  DefaultCompressEffort,
			Filter:  DefaultFilter,
		},
	}
}

// DefaultProfiles returns the built-in optimize profiles.
func DefaultProfiles() map[string]Profile {
	sources := []string{".png", ".jpg", ".jpeg"}
	return map[string]Profile{
		ProfileAggressive: {
			Extensions:    append(append([]string{}, sources...), DefaultTargetExt),
			DefaultPolicy: "aggressive",
			Rules: []Rule{
				{Name: "pattern", Contains: []string{"seamless", "pattern"}, Scope: ScopePath, Policy: "aggressive-pattern"},
			},
		},
		ProfileHighFidelity: {
			Extensions:    append([]string{}, sources...),
			DefaultPolicy: "high-fidelity",
		},
		ProfileCompress: {
			Extensions:    append([]string{}, sources...),
			DefaultPolicy: "compress",
			Rules: []Rule{
				{Name: "background", Contains: []string{"seamless", "bg"}, Scope: ScopeName, Policy: "compress-background"},
			},
		},
	}
}

// DefaultRenameSpecial returns the built-in rename table.
func DefaultRenameSpecial() []SpecialName {
	return []SpecialName{
		{Fragment: "标题", Name: "hero"},
		{Fragment: "微信图片", Name: "hero"},
		{Fragment: "主页", Name: "hero"},
	}
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		TargetExt:         DefaultTargetExt,
		Profile:           DefaultProfile,
		Profiles:          DefaultProfiles(),
		Policies:          DefaultPolicies(),
		Workers:           DefaultWorkers,
		CleanupExtensions: []string{".png", ".jpg", ".jpeg"},
		RenameSpecial:     DefaultRenameSpecial(),
		ReservedNames:     []string{"nul"},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.TargetExt == "" || !strings.HasPrefix(c.TargetExt, ".") {
		return fmt.Errorf("target extension must start with a dot, got %q", c.TargetExt)
	}
	if !strings.EqualFold(c.TargetExt, DefaultTargetExt) {
		return fmt.Errorf("target extension %q is not supported, only %s output is encoded", c.TargetExt, DefaultTargetExt)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	for _, name := range c.PolicyNames() {
		p := c.Policies[name]
		if p.MaxDimension < 0 {
			return fmt.Errorf("policy %s: max_dimension must be non-negative, got %d", name, p.MaxDimension)
		}
		if p.Quality < 0 || p.Quality > MaxQuality {
			return fmt.Errorf("policy %s: quality must be 0-%d, got %d", name, MaxQuality, p.Quality)
		}
		if p.Effort < 0 || p.Effort > MaxEffort {
			return fmt.Errorf("policy %s: effort must be 0-%d, got %d", name, MaxEffort, p.Effort)
		}
		if p.MinSourceBytes < 0 {
			return fmt.Errorf("policy %s: min_source_bytes must be non-negative, got %d", name, p.MinSourceBytes)
		}
		if p.Filter != "" && !knownFilter(p.Filter) {
			return fmt.Errorf("policy %s: unknown filter %q (want one of %s)", name, p.Filter, strings.Join(FilterNames, ", "))
		}
	}

	for name, prof := range c.Profiles {
		if len(prof.Extensions) == 0 {
			return fmt.Errorf("profile %s: at least one extension is required", name)
		}
		if _, ok := c.Policies[prof.DefaultPolicy]; !ok {
			return fmt.Errorf("profile %s: default policy %q: %w", name, prof.DefaultPolicy, ErrUnknownPolicy)
		}
		for _, r := range prof.Rules {
			if _, ok := c.Policies[r.Policy]; !ok {
				return fmt.Errorf("profile %s: rule %q policy %q: %w", name, r.Name, r.Policy, ErrUnknownPolicy)
			}
			if r.Scope != "" && r.Scope != ScopePath && r.Scope != ScopeName {
				return fmt.Errorf("profile %s: rule %q scope must be %q or %q, got %q", name, r.Name, ScopePath, ScopeName, r.Scope)
			}
			if len(r.Contains) == 0 {
				return fmt.Errorf("profile %s: rule %q needs at least one substring", name, r.Name)
			}
		}
	}

	if _, ok := c.Profiles[c.Profile]; !ok {
		return fmt.Errorf("unknown profile %q (want one of %s)", c.Profile, strings.Join(c.ProfileNames(), ", "))
	}

	for _, s := range c.RenameSpecial {
		if s.Fragment == "" || s.Name == "" {
			return fmt.Errorf("rename special entries need both fragment and name")
		}
	}

	return nil
}

// ActiveProfile returns the profile selected by c.Profile.
func (c *Config) ActiveProfile() (Profile, error) {
	p, ok := c.Profiles[c.Profile]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", c.Profile)
	}
	return p, nil
}

// Policy returns the named policy.
func (c *Config) Policy(name string) (Policy, error) {
	p, ok := c.Policies[name]
	if !ok {
		return Policy{}, fmt.Errorf("%q: %w", name, ErrUnknownPolicy)
	}
	return p, nil
}

// OverrideActivePolicies applies fn to every policy referenced by the active profile.
func (c *Config) OverrideActivePolicies(fn func(*Policy)) error {
	prof, err := c.ActiveProfile()
	if err != nil {
		return err
	}

	names := []string{prof.DefaultPolicy}
	for _, r := range prof.Rules {
		names = append(names, r.Policy)
	}

	for _, name := range names {
		p, err := c.Policy(name)
		if err != nil {
			return err
		}
		fn(&p)
		c.Policies[name] = p
	}
	return nil
}

// PolicyNames returns the configured policy names, sorted.
func (c *Config) PolicyNames() []string {
	names := make([]string, 0, len(c.Policies))
	for name := range c.Policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProfileNames returns the configured profile names, sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func knownFilter(name string) bool {
	for _, f := range FilterNames {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}
