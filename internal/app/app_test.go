package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/cricbase/internal/config"
	"github.com/riskibarqy/cricbase/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/cricbase/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

func TestBuildWiresServices(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	a := Build(config.Config{IngestMaxWorkers: 1}, Repositories{
		Profiles: store.Profiles(),
		Matches:  store.Matches(),
		Failures: store.Matches(),
		Missing:  store.MissingMatches(),
		RawData:  store.RawData(),
	}, logging.NewNop())

	require.NotNil(t, a.Resolver)
	require.NotNil(t, a.Profiles)
	require.NotNil(t, a.Ingestion)
	require.NotNil(t, a.Detector)
	require.NotNil(t, a.Reviews)
	require.NotNil(t, a.Integrity)
	require.NotNil(t, a.Schedule)
	require.Nil(t, a.DB)

	issues, err := a.Integrity.Verify(context.Background())
	require.NoError(t, err)
	require.Empty(t, issues)
	require.NoError(t, a.Close())
}

func TestPostgresRepositoriesUsesOneStoreForMatchesAndFailures(t *testing.T) {
	t.Parallel()

	repos := PostgresRepositories(postgres.NewStore(nil))
	require.NotNil(t, repos.Matches)
	require.Same(t, repos.Matches, repos.Failures)
}
