package profile

import "context"

// Repository is the curated profile store. Ingestion only reads it, apart
// from AppendCandidates.
type Repository interface {
	ListEntities(ctx context.Context) ([]Entity, error)
	ListAliases(ctx context.Context) ([]Alias, error)
	UpsertEntity(ctx context.Context, entity Entity) (string, error)
	UpsertAlias(ctx context.Context, alias Alias) error
	AppendCandidates(ctx context.Context, candidates []Candidate) error
	ListCandidates(ctx context.Context, status string) ([]Candidate, error)
}
