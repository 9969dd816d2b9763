package postgres

import "github.com/jmoiron/sqlx"

// Store groups the repositories sharing one connection pool.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Profiles() *ProfileRepository {
	return NewProfileRepository(s.db)
}

func (s *Store) Matches() *MatchRepository {
	return NewMatchRepository(s.db)
}

func (s *Store) MissingMatches() *MissingMatchRepository {
	return NewMissingMatchRepository(s.db)
}

func (s *Store) RawData() *RawDataRepository {
	return NewRawDataRepository(s.db)
}
