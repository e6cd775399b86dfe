package settings

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// PrefsKey is the reserved store key holding agent preferences. The leading
// @ cannot occur in a hostname, so the domain keyspace never collides.
const PrefsKey = "@prefs"

// Pages is the typed per-domain policy repository. Records are keyed by the
// domain name itself.
type Pages struct {
	store Store
}

func NewPages(store Store) *Pages {
	return &Pages{store: store}
}

// Lookup fetches the policy record for a domain. The second return is false
// when no policy is configured, a valid state.
func (p *Pages) Lookup(ctx context.Context, domain string) (types.PageSettings, bool, error) {
	if !validDomainKey(domain) {
		return types.PageSettings{}, false, nil
	}
	got, err := p.store.Get(ctx, []string{domain})
	if err != nil {
		return types.PageSettings{}, false, err
	}
	raw, ok := got[domain]
	if !ok {
		return types.PageSettings{}, false, nil
	}
	var ps types.PageSettings
	if err := json.Unmarshal(raw, &ps); err != nil {
		return types.PageSettings{}, false, types.NewError(types.CodeStoreIO, "decode settings record "+domain, err)
	}
	return ps, true, nil
}

// Put writes the policy record for a domain.
func (p *Pages) Put(ctx context.Context, domain string, ps types.PageSettings) error {
	if !validDomainKey(domain) {
		return types.NewError(types.CodeValidation, "invalid domain key", nil)
	}
	raw, err := json.Marshal(ps)
	if err != nil {
		return types.NewError(types.CodeStoreIO, "encode settings record "+domain, err)
	}
	return p.store.Set(ctx, map[string]json.RawMessage{domain: raw})
}

// Remove deletes the policy record for a domain. Removing an absent record
// is a no-op.
func (p *Pages) Remove(ctx context.Context, domain string) error {
	if !validDomainKey(domain) {
		return types.NewError(types.CodeValidation, "invalid domain key", nil)
	}
	return p.store.Delete(ctx, []string{domain})
}

// All returns every configured domain record.
func (p *Pages) All(ctx context.Context) (map[string]types.PageSettings, error) {
	got, err := p.store.Get(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.PageSettings, len(got))
	for key, raw := range got {
		if strings.HasPrefix(key, "@") {
			continue
		}
		var ps types.PageSettings
		if err := json.Unmarshal(raw, &ps); err != nil {
			return nil, types.NewError(types.CodeStoreIO, "decode settings record "+key, err)
		}
		out[key] = ps
	}
	return out, nil
}

// Domains returns the configured domains in sorted order.
func (p *Pages) Domains(ctx context.Context) ([]string, error) {
	all, err := p.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for d := range all {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// SetNeverAsk flips the neverAsk flag on an existing record. A domain with
// no record is left untouched and reported as not applied; there is nothing
// to mutate.
func (p *Pages) SetNeverAsk(ctx context.Context, domain string, value bool) (bool, error) {
	ps, ok, err := p.Lookup(ctx, domain)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if ps.NeverAsk == value {
		return true, nil
	}
	ps.NeverAsk = value
	if err := p.Put(ctx, domain, ps); err != nil {
		return false, err
	}
	return true, nil
}

// Prefs returns the stored agent preferences; ok is false when none were
// ever written.
func (p *Pages) Prefs(ctx context.Context) (types.Prefs, bool, error) {
	got, err := p.store.Get(ctx, []string{PrefsKey})
	if err != nil {
		return types.Prefs{}, false, err
	}
	raw, ok := got[PrefsKey]
	if !ok {
		return types.Prefs{}, false, nil
	}
	var prefs types.Prefs
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return types.Prefs{}, false, types.NewError(types.CodeStoreIO, "decode prefs record", err)
	}
	return prefs, true, nil
}

// SetPrefs writes the agent preferences record.
func (p *Pages) SetPrefs(ctx context.Context, prefs types.Prefs) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return types.NewError(types.CodeStoreIO, "encode prefs record", err)
	}
	return p.store.Set(ctx, map[string]json.RawMessage{PrefsKey: raw})
}

// OnChange registers a listener on the underlying store. The returned
// function unregisters it.
func (p *Pages) OnChange(l Listener) func() {
	return p.store.OnChange(l)
}

func validDomainKey(domain string) bool {
	return domain != "" && !strings.HasPrefix(domain, "@")
}
