// Package classify decides which files an optimize run touches and which
// policy applies to each.
package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/util"
)

// Decision is the outcome of classifying one in-scope file.
type Decision struct {
	PolicyName string
	Policy     config.Policy
	Rule       string // empty when the profile default applied
}

type rule struct {
	name     string
	contains []string
	byName   bool
	policy   string
}

// Classifier applies a profile's extension allow-set and substring rules.
type Classifier struct {
	extensions    map[string]bool
	defaultPolicy string
	rules         []rule
	policies      map[string]config.Policy
}

// New builds a Classifier for profile, resolving policy names against policies.
func New(profile config.Profile, policies map[string]config.Policy) (*Classifier, error) {
	if _, ok := policies[profile.DefaultPolicy]; !ok {
		return nil, fmt.Errorf("default policy %q: %w", profile.DefaultPolicy, config.ErrUnknownPolicy)
	}

	c := &Classifier{
		extensions:    make(map[string]bool, len(profile.Extensions)),
		defaultPolicy: profile.DefaultPolicy,
		policies:      policies,
	}
	for _, ext := range profile.Extensions {
		c.extensions[util.NormalizeExtension(ext)] = true
	}

	for _, r := range profile.Rules {
		if _, ok := policies[r.Policy]; !ok {
			return nil, fmt.Errorf("rule %q policy %q: %w", r.Name, r.Policy, config.ErrUnknownPolicy)
		}
		lowered := make([]string, 0, len(r.Contains))
		for _, s := range r.Contains {
			if s = strings.ToLower(s); s != "" {
				lowered = append(lowered, s)
			}
		}
		c.rules = append(c.rules, rule{
			name:     r.Name,
			contains: lowered,
			byName:   r.Scope == config.ScopeName,
			policy:   r.Policy,
		})
	}

	return c, nil
}

// ForConfig builds a Classifier for the active profile of cfg.
func ForConfig(cfg *config.Config) (*Classifier, error) {
	profile, err := cfg.ActiveProfile()
	if err != nil {
		return nil, err
	}
	return New(profile, cfg.Policies)
}

// InScope reports whether path has an allowed extension.
func (c *Classifier) InScope(path string) bool {
	return c.extensions[strings.ToLower(filepath.Ext(path))]
}

// Classify returns the policy decision for path. ok is false when the
// extension is outside the allow-set.
func (c *Classifier) Classify(path string) (Decision, bool) {
	if !c.InScope(path) {
		return Decision{}, false
	}

	lowerPath := strings.ToLower(path)
	lowerName := strings.ToLower(filepath.Base(path))

	for _, r := range c.rules {
		subject := lowerPath
		if r.byName {
			subject = lowerName
		}
		for _, s := range r.contains {
			if strings.Contains(subject, s) {
				return Decision{PolicyName: r.policy, Policy: c.policies[r.policy], Rule: r.name}, true
			}
		}
	}

	return Decision{PolicyName: c.defaultPolicy, Policy: c.policies[c.defaultPolicy]}, true
}
