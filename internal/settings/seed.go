package settings

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// SeedDomain is one provisioned policy record.
type SeedDomain struct {
	Domain   string `yaml:"domain"`
	Group    string `yaml:"group"`
	NeverAsk bool   `yaml:"neverAsk,omitempty"`
}

// SeedPrefs mirrors the optional prefs block of the seed file.
type SeedPrefs struct {
	AutoOpenDashboard bool `yaml:"autoOpenDashboard"`
}

// Seed is the top-level YAML provisioning file.
type Seed struct {
	Domains []SeedDomain `yaml:"domains"`
	Prefs   *SeedPrefs   `yaml:"prefs,omitempty"`
}

// LoadSeed reads and validates a policy seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("policy seed: %w", err)
	}
	for i, d := range seed.Domains {
		if d.Domain == "" {
			return nil, fmt.Errorf("policy seed: domains[%d] missing domain", i)
		}
		if d.Group == "" && !d.NeverAsk {
			return nil, fmt.Errorf("policy seed: domains[%d] (%s) needs a group or neverAsk", i, d.Domain)
		}
	}
	return &seed, nil
}

// ApplySeed provisions records that do not exist yet. Existing records and
// previously written prefs are never overwritten, so user edits survive
// restarts with a seed file configured. Returns the number of records
// written.
func ApplySeed(ctx context.Context, seed *Seed, pages *Pages) (int, error) {
	applied := 0
	for _, d := range seed.Domains {
		_, ok, err := pages.Lookup(ctx, d.Domain)
		if err != nil {
			return applied, err
		}
		if ok {
			continue
		}
		ps := types.PageSettings{Group: types.GroupID(d.Group), NeverAsk: d.NeverAsk}
		if err := pages.Put(ctx, d.Domain, ps); err != nil {
			return applied, err
		}
		applied++
	}

	if seed.Prefs != nil {
		_, ok, err := pages.Prefs(ctx)
		if err != nil {
			return applied, err
		}
		if !ok {
			if err := pages.SetPrefs(ctx, types.Prefs{AutoOpenDashboard: seed.Prefs.AutoOpenDashboard}); err != nil {
				return applied, err
			}
			applied++
		}
	}
	return applied, nil
}
