package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-other=1, uptrace-dsn=\"https://token@api.uptrace.dev\"")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("SCHEDULE_MIN_INTERVAL", "")
	t.Setenv("SCHEDULE_COMP_TYPES", "")
	t.Setenv("TARGET_MATCH_TYPES", "")
	t.Setenv("APP_LOG_FORMAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ScheduleMinInterval != 2*time.Second {
		t.Fatalf("unexpected ScheduleMinInterval: %s", cfg.ScheduleMinInterval)
	}
	if cfg.SchedulePageSize != 400 {
		t.Fatalf("unexpected SchedulePageSize: %d", cfg.SchedulePageSize)
	}
	if cfg.ScheduleCompTypes["male/T20"] != 3 || cfg.ScheduleCompTypes["female/T20"] != 13 {
		t.Fatalf("unexpected ScheduleCompTypes: %+v", cfg.ScheduleCompTypes)
	}
	if len(cfg.TargetMatchTypes) != 1 || cfg.TargetMatchTypes[0] != "T20" {
		t.Fatalf("unexpected TargetMatchTypes: %+v", cfg.TargetMatchTypes)
	}
	if cfg.LogFormat != logging.FormatConsole {
		t.Fatalf("expected console logs in dev, got %s", cfg.LogFormat)
	}
	if cfg.IngestMaxWorkers < 1 || cfg.IngestMaxWorkers > cfg.DBMaxOpenConns {
		t.Fatalf("unexpected IngestMaxWorkers: %d", cfg.IngestMaxWorkers)
	}
}

func TestLoad_ProdDefaultsToJSONLogs(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_LOG_FORMAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogFormat != logging.FormatJSON {
		t.Fatalf("expected json logs in prod, got %s", cfg.LogFormat)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"SCHEDULE_MIN_INTERVAL":             "0s",
		"SCHEDULE_MAX_RETRIES":              "-1",
		"SCHEDULE_PAGE_SIZE":                "abc",
		"SCHEDULE_COMP_TYPES":               "male/T20",
		"SCHEDULE_BACKOFF_MAX":              "1ms",
		"INGEST_MAX_WORKERS":                "0",
		"TARGET_GENDERS":                    "mixed",
		"APP_LOG_LEVEL":                     "loud",
		"RESOLVER_CONTEXT_WINDOW":           "soon",
		"PYROSCOPE_UPLOAD_RATE":             "-5s",
		"DB_DISABLE_PREPARED_BINARY_RESULT": "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv("UPTRACE_ENABLED", "false")
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestParseIDMap(t *testing.T) {
	got, err := parseIDMap(" male/T20:3 , female/T20:13,")
	if err != nil {
		t.Fatalf("parse id map: %v", err)
	}
	if len(got) != 2 || got["female/T20"] != 13 {
		t.Fatalf("unexpected map: %+v", got)
	}

	if _, err := parseIDMap("male/T20:0"); err == nil {
		t.Fatalf("expected error for zero id")
	}
}
