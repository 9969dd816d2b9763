package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/cricbase/external/cricsheet"
	"github.com/riskibarqy/cricbase/external/schedule"
	"github.com/riskibarqy/cricbase/internal/config"
	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/domain/missingmatch"
	"github.com/riskibarqy/cricbase/internal/domain/profile"
	"github.com/riskibarqy/cricbase/internal/domain/rawdata"
	"github.com/riskibarqy/cricbase/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/cricbase/internal/platform/id"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
	"github.com/riskibarqy/cricbase/internal/platform/resilience"
	"github.com/riskibarqy/cricbase/internal/usecase"
)

// Repositories is the storage the services are built over.
type Repositories struct {
	Profiles profile.Repository
	Matches  match.Repository
	Failures match.FailureRepository
	Missing  missingmatch.Repository
	RawData  rawdata.Repository
}

// PostgresRepositories exposes a postgres store as Repositories.
func PostgresRepositories(store *postgres.Store) Repositories {
	matches := store.Matches()
	return Repositories{
		Profiles: store.Profiles(),
		Matches:  matches,
		Failures: matches,
		Missing:  store.MissingMatches(),
		RawData:  store.RawData(),
	}
}

// App holds the services every command needs.
type App struct {
	Config    config.Config
	Logger    *logging.Logger
	DB        *sqlx.DB
	Repos     Repositories
	Resolver  *usecase.EntityResolver
	Profiles  *usecase.ProfileLoader
	Ingestion *usecase.IngestionService
	Detector  *usecase.MissingMatchDetector
	Reviews   *usecase.ReviewService
	Integrity *usecase.IntegrityService
	Schedule  *schedule.Client
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := Build(cfg, PostgresRepositories(postgres.NewStore(db)), logger)
	a.DB = db
	return a, nil
}

// Build wires the services over repos. The schedule client is built from
// cfg; tests replace it through WithScheduleSource.
func Build(cfg config.Config, repos Repositories, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.Default()
	}
	profiles := repos.Profiles
	matches := repos.Matches
	missing := repos.Missing
	ids := id.NewRandomGenerator()

	resolver := usecase.NewEntityResolver(profiles, cfg.ResolverContextWindow, logger.Named("resolver"))

	ingestion := usecase.NewIngestionService(
		cricsheet.NewDecoder(),
		resolver,
		matches,
		repos.Failures,
		repos.RawData,
		ids,
		usecase.IngestConfig{
			Scope: usecase.IngestScope{
				MatchTypes: cfg.TargetMatchTypes,
				TeamTypes:  cfg.TargetTeamTypes,
				Genders:    cfg.TargetGenders,
			},
			MaxWorkers: cfg.IngestMaxWorkers,
		},
		logger.Named("ingest"),
	)

	scheduleClient := schedule.NewClient(schedule.ClientConfig{
		BaseURL:        cfg.ScheduleBaseURL,
		ClientID:       cfg.ScheduleClientID,
		UserAgent:      cfg.ScheduleUserAgent,
		Timeout:        cfg.ScheduleTimeout,
		MinInterval:    cfg.ScheduleMinInterval,
		MaxRetries:     cfg.ScheduleMaxRetries,
		BackoffInitial: cfg.ScheduleBackoffInitial,
		BackoffMax:     cfg.ScheduleBackoffMax,
		CompTypes:      cfg.ScheduleCompTypes,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ScheduleCircuitEnabled,
			FailureThreshold: cfg.ScheduleCircuitFailures,
			OpenTimeout:      cfg.ScheduleCircuitOpen,
			HalfOpenMaxReq:   cfg.ScheduleCircuitHalfOpen,
		},
		Logger: logger.Named("schedule"),
	})

	detector := usecase.NewMissingMatchDetector(
		scheduleClient,
		matches,
		missing,
		resolver,
		ids,
		usecase.DetectorConfig{PageSize: cfg.SchedulePageSize},
		logger.Named("reconcile"),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Repos:     repos,
		Resolver:  resolver,
		Profiles:  usecase.NewProfileLoader(profiles, logger.Named("profiles")),
		Ingestion: ingestion,
		Detector:  detector,
		Reviews:   usecase.NewReviewService(missing),
		Integrity: usecase.NewIntegrityService(matches, logger.Named("verify")),
		Schedule:  scheduleClient,
	}
}

// WithScheduleSource rebuilds the detector over another schedule source.
func (a *App) WithScheduleSource(source usecase.ScheduleSource) *App {
	a.Detector = usecase.NewMissingMatchDetector(
		source,
		a.Repos.Matches,
		a.Repos.Missing,
		a.Resolver,
		id.NewRandomGenerator(),
		usecase.DetectorConfig{PageSize: a.Config.SchedulePageSize},
		a.Logger.Named("reconcile"),
	)
	return a
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close postgres: %w", err)
	}
	return nil
}
