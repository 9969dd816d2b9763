package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/cricbase/internal/domain/profile"
)

type ProfileRepository struct {
	store *Store
}

func (r *ProfileRepository) ListEntities(_ context.Context) ([]profile.Entity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]profile.Entity, 0, len(r.store.entities))
	for _, e := range r.store.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ProfileRepository) ListAliases(_ context.Context) ([]profile.Alias, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]profile.Alias, 0, len(r.store.aliases))
	for _, a := range r.store.aliases {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Scope < out[j].Scope
	})
	return out, nil
}

// UpsertEntity is idempotent on (kind namespace, natural key) and returns the
// id already stored for that key.
func (r *ProfileRepository) UpsertEntity(_ context.Context, entity profile.Entity) (string, error) {
	if strings.TrimSpace(entity.ID) == "" || strings.TrimSpace(entity.NaturalKey) == "" {
		return "", fmt.Errorf("entity id and natural key are required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ns := entity.Kind.Namespace()
	natural := ns + "|" + strings.ToLower(strings.TrimSpace(entity.NaturalKey))
	if existing, ok := r.store.naturalKeys[natural]; ok {
		entity.ID = existing
	}
	r.store.naturalKeys[natural] = entity.ID
	r.store.entities[entityKey{namespace: ns, id: entity.ID}] = entity
	return entity.ID, nil
}

func (r *ProfileRepository) UpsertAlias(_ context.Context, alias profile.Alias) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ns := alias.Kind.Namespace()
	if _, ok := r.store.entities[entityKey{namespace: ns, id: alias.EntityID}]; !ok {
		return fmt.Errorf("alias %q references unknown %s %s", alias.Name, ns, alias.EntityID)
	}
	key := aliasKey{namespace: ns, name: profile.NormalizeName(alias.Name), scope: profile.NormalizeName(alias.Scope)}
	r.store.aliases[key] = alias
	return nil
}

func (r *ProfileRepository) AppendCandidates(_ context.Context, candidates []profile.Candidate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range candidates {
		key := candidateKey{namespace: c.Kind.Namespace(), name: profile.NormalizeName(c.RawName), scope: profile.NormalizeName(c.Scope)}
		if existing, ok := r.store.candidates[key]; ok {
			existing.SeenCount += c.SeenCount
			existing.SeenAt = c.SeenAt
			r.store.candidates[key] = existing
			continue
		}
		if c.Status == "" {
			c.Status = profile.CandidatePending
		}
		r.store.candidates[key] = c
	}
	return nil
}

func (r *ProfileRepository) ListCandidates(_ context.Context, status string) ([]profile.Candidate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]profile.Candidate, 0, len(r.store.candidates))
	for _, c := range r.store.candidates {
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].RawName < out[j].RawName
	})
	return out, nil
}
