package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/cricbase/internal/domain/profile"
	qb "github.com/riskibarqy/cricbase/internal/platform/querybuilder"
)

const listEntitiesQuery = `
SELECT kind, id::text AS id, natural_key, registry_key, name, alt_names, '' AS scope, attributes FROM people
UNION ALL
SELECT 'team', id::text, natural_key, NULL, name, alt_names, gender, attributes FROM teams
UNION ALL
SELECT 'venue', id::text, natural_key, NULL, name, alt_names, city, attributes FROM venues
ORDER BY kind, id`

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) ListEntities(ctx context.Context) ([]profile.Entity, error) {
	var rows []profileEntityRow
	if err := r.db.SelectContext(ctx, &rows, listEntitiesQuery); err != nil {
		return nil, fmt.Errorf("select profile entities: %w", err)
	}

	out := make([]profile.Entity, 0, len(rows))
	for _, row := range rows {
		attrs := map[string]string{}
		if len(row.Attributes) > 0 {
			if err := sonic.Unmarshal(row.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("decode attributes of %s %s: %w", row.Kind, row.ID, err)
			}
		}
		out = append(out, profile.Entity{
			Kind:        profile.Kind(row.Kind),
			ID:          row.ID,
			NaturalKey:  row.NaturalKey,
			RegistryKey: nullStringValue(row.RegistryKey),
			Name:        row.Name,
			AltNames:    []string(row.AltNames),
			Scope:       row.Scope,
			Attributes:  attrs,
		})
	}
	return out, nil
}

func (r *ProfileRepository) ListAliases(ctx context.Context) ([]profile.Alias, error) {
	query, args, err := qb.Select("namespace", "name_norm", "scope_norm", "kind", "raw_name", "scope", "entity_id::text AS entity_id", "note").
		From("profile_aliases").
		OrderBy("kind", "raw_name", "scope").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select aliases query: %w", err)
	}

	var rows []aliasTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select aliases: %w", err)
	}

	out := make([]profile.Alias, 0, len(rows))
	for _, row := range rows {
		out = append(out, profile.Alias{
			Kind:     profile.Kind(row.Kind),
			Name:     row.RawName,
			Scope:    row.Scope,
			EntityID: row.EntityID,
			Note:     row.Note,
		})
	}
	return out, nil
}

// UpsertEntity is idempotent on the natural key and returns the id already
// stored for it, which may differ from entity.ID.
func (r *ProfileRepository) UpsertEntity(ctx context.Context, entity profile.Entity) (string, error) {
	if strings.TrimSpace(entity.ID) == "" || strings.TrimSpace(entity.NaturalKey) == "" {
		return "", fmt.Errorf("entity id and natural key are required")
	}

	attrs := entity.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	rawAttrs, err := sonic.MarshalString(attrs)
	if err != nil {
		return "", fmt.Errorf("encode attributes of %s: %w", entity.NaturalKey, err)
	}
	naturalKey := strings.TrimSpace(entity.NaturalKey)
	altNames := append([]string{}, entity.AltNames...)

	var (
		table  string
		model  any
		suffix string
	)
	switch entity.Kind {
	case profile.KindPlayer, profile.KindOfficial:
		table = "people"
		model = personInsertModel{
			ID:          entity.ID,
			Kind:        string(entity.Kind),
			NaturalKey:  naturalKey,
			RegistryKey: nullableString(entity.RegistryKey),
			Name:        entity.Name,
			AltNames:    altNames,
			Attributes:  rawAttrs,
		}
		suffix = `ON CONFLICT (natural_key)
DO UPDATE SET
    kind = EXCLUDED.kind,
    registry_key = COALESCE(EXCLUDED.registry_key, people.registry_key),
    name = EXCLUDED.name,
    alt_names = EXCLUDED.alt_names,
    attributes = EXCLUDED.attributes,
    updated_at = NOW()`
	case profile.KindTeam:
		table = "teams"
		model = teamInsertModel{
			ID:         entity.ID,
			NaturalKey: naturalKey,
			Name:       entity.Name,
			AltNames:   altNames,
			Gender:     entity.Scope,
			Attributes: rawAttrs,
		}
		suffix = `ON CONFLICT (natural_key)
DO UPDATE SET
    name = EXCLUDED.name,
    alt_names = EXCLUDED.alt_names,
    gender = EXCLUDED.gender,
    attributes = EXCLUDED.attributes,
    updated_at = NOW()`
	case profile.KindVenue:
		table = "venues"
		model = venueInsertModel{
			ID:         entity.ID,
			NaturalKey: naturalKey,
			Name:       entity.Name,
			AltNames:   altNames,
			City:       entity.Scope,
			Attributes: rawAttrs,
		}
		suffix = `ON CONFLICT (natural_key)
DO UPDATE SET
    name = EXCLUDED.name,
    alt_names = EXCLUDED.alt_names,
    city = EXCLUDED.city,
    attributes = EXCLUDED.attributes,
    updated_at = NOW()`
	default:
		return "", fmt.Errorf("unknown profile kind %q", entity.Kind)
	}

	query, args, err := qb.InsertModel(table, model, suffix+"\nRETURNING id::text")
	if err != nil {
		return "", fmt.Errorf("build upsert %s query: %w", table, err)
	}

	var id string
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert %s natural_key=%s: %w", table, naturalKey, asConstraintError(err, naturalKey))
	}
	return id, nil
}

// UpsertAlias checks the target entity inside the same transaction so an
// alias never points at a missing row.
func (r *ProfileRepository) UpsertAlias(ctx context.Context, alias profile.Alias) error {
	table, err := entityTable(alias.Kind)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert alias: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Select("COUNT(1)").From(table).
		Where(qb.Expr("id::text = ?", alias.EntityID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build alias target query: %w", err)
	}
	var found int
	if err := tx.GetContext(ctx, &found, query, args...); err != nil {
		return fmt.Errorf("check alias target: %w", err)
	}
	if found == 0 {
		return fmt.Errorf("alias %q references unknown %s %s", alias.Name, alias.Kind.Namespace(), alias.EntityID)
	}

	model := aliasTableModel{
		Namespace: alias.Kind.Namespace(),
		NameNorm:  profile.NormalizeName(alias.Name),
		ScopeNorm: profile.NormalizeName(alias.Scope),
		Kind:      string(alias.Kind),
		RawName:   alias.Name,
		Scope:     alias.Scope,
		EntityID:  alias.EntityID,
		Note:      alias.Note,
	}
	query, args, err = qb.InsertModel("profile_aliases", model, `ON CONFLICT (namespace, name_norm, scope_norm)
DO UPDATE SET
    kind = EXCLUDED.kind,
    raw_name = EXCLUDED.raw_name,
    scope = EXCLUDED.scope,
    entity_id = EXCLUDED.entity_id,
    note = EXCLUDED.note,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert alias query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert alias %q: %w", alias.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert alias tx: %w", err)
	}
	return nil
}

// AppendCandidates merges candidates sharing a key before writing, since one
// statement cannot update the same conflicting row twice.
func (r *ProfileRepository) AppendCandidates(ctx context.Context, candidates []profile.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	merged := make(map[[3]string]candidateInsertModel, len(candidates))
	for _, c := range candidates {
		seen := c.SeenAt.UTC()
		if seen.IsZero() {
			seen = time.Now().UTC()
		}
		count := c.SeenCount
		if count < 1 {
			count = 1
		}
		status := c.Status
		if status == "" {
			status = profile.CandidatePending
		}
		model := candidateInsertModel{
			Namespace:  c.Kind.Namespace(),
			NameNorm:   profile.NormalizeName(c.RawName),
			ScopeNorm:  profile.NormalizeName(c.Scope),
			Kind:       string(c.Kind),
			RawName:    c.RawName,
			Scope:      c.Scope,
			HintKey:    c.HintKey,
			MatchID:    c.MatchID,
			Status:     status,
			SeenCount:  count,
			FirstSeen:  seen,
			LastSeenAt: seen,
		}
		key := [3]string{model.Namespace, model.NameNorm, model.ScopeNorm}
		if existing, ok := merged[key]; ok {
			existing.SeenCount += model.SeenCount
			if model.LastSeenAt.After(existing.LastSeenAt) {
				existing.LastSeenAt = model.LastSeenAt
			}
			merged[key] = existing
			continue
		}
		merged[key] = model
	}

	models := make([]candidateInsertModel, 0, len(merged))
	for _, m := range merged {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Namespace != models[j].Namespace {
			return models[i].Namespace < models[j].Namespace
		}
		if models[i].NameNorm != models[j].NameNorm {
			return models[i].NameNorm < models[j].NameNorm
		}
		return models[i].ScopeNorm < models[j].ScopeNorm
	})

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx append candidates: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, chunk := range qb.Chunk(models, qb.ColumnCount(candidateInsertModel{})) {
		query, args, err := qb.InsertModels("resolution_candidates", chunk, `ON CONFLICT (namespace, name_norm, scope_norm)
DO UPDATE SET
    seen_count = resolution_candidates.seen_count + EXCLUDED.seen_count,
    last_seen_at = GREATEST(resolution_candidates.last_seen_at, EXCLUDED.last_seen_at)`)
		if err != nil {
			return fmt.Errorf("build append candidates query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("append candidates: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append candidates tx: %w", err)
	}
	return nil
}

func (r *ProfileRepository) ListCandidates(ctx context.Context, status string) ([]profile.Candidate, error) {
	builder := qb.Select("kind", "raw_name", "scope", "hint_key", "match_id", "status", "seen_count", "last_seen_at").
		From("resolution_candidates").
		OrderBy("kind", "raw_name")
	if status != "" {
		builder = builder.Where(qb.Eq("status", status))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select candidates query: %w", err)
	}

	var rows []candidateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}

	out := make([]profile.Candidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, profile.Candidate{
			Kind:      profile.Kind(row.Kind),
			RawName:   row.RawName,
			Scope:     row.Scope,
			HintKey:   row.HintKey,
			MatchID:   row.MatchID,
			Status:    row.Status,
			SeenCount: row.SeenCount,
			SeenAt:    row.LastSeenAt.UTC(),
		})
	}
	return out, nil
}

func entityTable(kind profile.Kind) (string, error) {
	switch kind {
	case profile.KindPlayer, profile.KindOfficial:
		return "people", nil
	case profile.KindTeam:
		return "teams", nil
	case profile.KindVenue:
		return "venues", nil
	default:
		return "", fmt.Errorf("unknown profile kind %q", kind)
	}
}
