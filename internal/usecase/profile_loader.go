package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/platform/id"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

const (
	PeopleFile = "people.csv"
	TeamsFile  = "teams.csv"
	VenuesFile = "venues.csv"
)

type ProfileLoadSummary struct {
	People  int `json:"people"`
	Teams   int `json:"teams"`
	Venues  int `json:"venues"`
	Aliases int `json:"aliases"`
}

// ProfileLoader writes curated profiles and aliases. Stable ids are derived
// from natural keys, so reloading the same files yields the same ids.
type ProfileLoader struct {
	repo   profile.Repository
	logger *logging.Logger
}

func NewProfileLoader(repo profile.Repository, logger *logging.Logger) *ProfileLoader {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProfileLoader{repo: repo, logger: logger}
}

// LoadDirectory loads people.csv, teams.csv and venues.csv from dir. Missing
// files are skipped.
func (l *ProfileLoader) LoadDirectory(ctx context.Context, dir string) (ProfileLoadSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileLoader.LoadDirectory")
	defer span.End()

	var summary ProfileLoadSummary
	steps := []struct {
		file  string
		load  func(context.Context, io.Reader) (int, error)
		count *int
	}{
		{file: PeopleFile, load: l.LoadPeople, count: &summary.People},
		{file: TeamsFile, load: l.LoadTeams, count: &summary.Teams},
		{file: VenuesFile, load: l.LoadVenues, count: &summary.Venues},
	}
	for _, step := range steps {
		path := filepath.Join(dir, step.file)
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				l.logger.DebugContext(ctx, "profile file not found, skipping", "path", path)
				continue
			}
			return summary, fmt.Errorf("open %s: %w", path, err)
		}
		n, err := step.load(ctx, f)
		_ = f.Close()
		if err != nil {
			return summary, fmt.Errorf("load %s: %w", path, err)
		}
		*step.count = n
	}

	l.logger.InfoContext(ctx, "profiles loaded", "people", summary.People, "teams", summary.Teams, "venues", summary.Venues)
	return summary, nil
}

// LoadPeople reads a registry CSV with at least identifier and name columns.
// unique_name becomes an alternative name; key_* columns are kept as attributes.
func (l *ProfileLoader) LoadPeople(ctx context.Context, r io.Reader) (int, error) {
	return l.loadCSV(ctx, r, []string{"identifier", "name"}, func(row csvRow) (profile.Entity, error) {
		key := row.get("identifier")
		e := profile.Entity{
			Kind:        profile.KindPlayer,
			NaturalKey:  key,
			RegistryKey: key,
			Name:        row.get("name"),
			Attributes:  row.prefixed("key_"),
		}
		if unique := row.get("unique_name"); unique != "" && unique != e.Name {
			e.AltNames = append(e.AltNames, unique)
		}
		return e, nil
	})
}

// LoadTeams reads name, gender and optional alt_names (";" separated) and team_type.
func (l *ProfileLoader) LoadTeams(ctx context.Context, r io.Reader) (int, error) {
	return l.loadCSV(ctx, r, []string{"name", "gender"}, func(row csvRow) (profile.Entity, error) {
		gender := strings.ToLower(row.get("gender"))
		if gender != "male" && gender != "female" {
			return profile.Entity{}, fmt.Errorf("line %d: invalid gender %q", row.line, row.get("gender"))
		}
		e := profile.Entity{
			Kind:       profile.KindTeam,
			NaturalKey: row.get("name") + "|" + gender,
			Name:       row.get("name"),
			AltNames:   splitAltNames(row.get("alt_names")),
			Scope:      gender,
		}
		if teamType := row.get("team_type"); teamType != "" {
			e.Attributes = map[string]string{"team_type": teamType}
		}
		return e, nil
	})
}

// LoadVenues reads name, city and optional alt_names.
func (l *ProfileLoader) LoadVenues(ctx context.Context, r io.Reader) (int, error) {
	return l.loadCSV(ctx, r, []string{"name", "city"}, func(row csvRow) (profile.Entity, error) {
		return profile.Entity{
			Kind:       profile.KindVenue,
			NaturalKey: row.get("name") + "|" + row.get("city"),
			Name:       row.get("name"),
			AltNames:   splitAltNames(row.get("alt_names")),
			Scope:      row.get("city"),
		}, nil
	})
}

type aliasFile struct {
	Aliases []aliasEntry `yaml:"aliases"`
}

type aliasEntry struct {
	Kind   string `yaml:"kind"`
	Name   string `yaml:"name"`
	Scope  string `yaml:"scope"`
	Target string `yaml:"target"`
	ID     string `yaml:"id"`
	Note   string `yaml:"note"`
}

// LoadAliases reads a YAML alias table. Each entry points at its entity either
// by id or by the entity's natural key (target).
func (l *ProfileLoader) LoadAliases(ctx context.Context, r io.Reader) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileLoader.LoadAliases")
	defer span.End()

	var file aliasFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: decode alias file: %v", ErrInvalidInput, err)
	}

	for i, entry := range file.Aliases {
		kind, ok := profile.ParseKind(entry.Kind)
		if !ok {
			return i, fmt.Errorf("%w: alias %d: unknown kind %q", ErrInvalidInput, i+1, entry.Kind)
		}
		if strings.TrimSpace(entry.Name) == "" {
			return i, fmt.Errorf("%w: alias %d: name is required", ErrInvalidInput, i+1)
		}
		entityID := strings.TrimSpace(entry.ID)
		if entityID == "" {
			if strings.TrimSpace(entry.Target) == "" {
				return i, fmt.Errorf("%w: alias %d: id or target is required", ErrInvalidInput, i+1)
			}
			entityID = id.Stable(kind.Namespace(), entry.Target)
		}
		alias := profile.Alias{
			Kind:     kind,
			Name:     strings.TrimSpace(entry.Name),
			Scope:    strings.TrimSpace(entry.Scope),
			EntityID: entityID,
			Note:     strings.TrimSpace(entry.Note),
		}
		if err := l.repo.UpsertAlias(ctx, alias); err != nil {
			return i, fmt.Errorf("upsert alias %q: %w", alias.Name, err)
		}
	}
	l.logger.InfoContext(ctx, "aliases loaded", "count", len(file.Aliases))
	return len(file.Aliases), nil
}

// LoadAliasFile is LoadAliases over a file path.
func (l *ProfileLoader) LoadAliasFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: alias file %s", ErrNotFound, path)
		}
		return 0, fmt.Errorf("open alias file: %w", err)
	}
	defer f.Close()
	return l.LoadAliases(ctx, f)
}

// Candidates lists resolution candidates with the given status (all when empty).
func (l *ProfileLoader) Candidates(ctx context.Context, status string) ([]profile.Candidate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileLoader.Candidates")
	defer span.End()

	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", profile.CandidatePending, profile.CandidateAccepted, profile.CandidateRejected:
	default:
		return nil, fmt.Errorf("%w: unknown candidate status %q", ErrInvalidInput, status)
	}
	items, err := l.repo.ListCandidates(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return items, nil
}

type csvRow struct {
	line    int
	columns map[string]int
	values  []string
}

func (r csvRow) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[idx])
}

func (r csvRow) prefixed(prefix string) map[string]string {
	out := make(map[string]string)
	for column, idx := range r.columns {
		if !strings.HasPrefix(column, prefix) || idx >= len(r.values) {
			continue
		}
		if v := strings.TrimSpace(r.values[idx]); v != "" {
			out[column] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type parsedEntity struct {
	entity profile.Entity
	err    error
}

func (l *ProfileLoader) loadCSV(ctx context.Context, r io.Reader, required []string, parse func(csvRow) (profile.Entity, error)) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("%w: read csv: %v", ErrInvalidInput, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, column := range required {
		if _, ok := columns[column]; !ok {
			return 0, fmt.Errorf("%w: csv column %q is required", ErrInvalidInput, column)
		}
	}

	rows := make([]csvRow, 0, len(records)-1)
	for i, values := range records[1:] {
		rows = append(rows, csvRow{line: i + 2, columns: columns, values: values})
	}

	parsed := iter.Map(rows, func(row *csvRow) parsedEntity {
		e, err := parse(*row)
		if err != nil {
			return parsedEntity{err: err}
		}
		if e.Name == "" || e.NaturalKey == "" {
			return parsedEntity{err: fmt.Errorf("line %d: name and key are required", row.line)}
		}
		e.ID = id.Stable(e.Kind.Namespace(), e.NaturalKey)
		return parsedEntity{entity: e}
	})

	count := 0
	for _, p := range parsed {
		if p.err != nil {
			return count, fmt.Errorf("%w: %v", ErrInvalidInput, p.err)
		}
		if _, err := l.repo.UpsertEntity(ctx, p.entity); err != nil {
			return count, fmt.Errorf("upsert %s %q: %w", p.entity.Kind, p.entity.Name, err)
		}
		count++
	}
	return count, nil
}

func splitAltNames(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
