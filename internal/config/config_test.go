package config

import (
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CanvasWidth != 1000 || cfg.CanvasHeight != 700 || cfg.GridStep != 20 {
		t.Errorf("canvas defaults = %d x %d step %g", cfg.CanvasWidth, cfg.CanvasHeight, cfg.GridStep)
	}
	if cfg.HitMinTolerance != 20 || cfg.HitEpsilon != 1e-6 {
		t.Errorf("tolerance defaults = %g, %g", cfg.HitMinTolerance, cfg.HitEpsilon)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GRID_STEP", "10")
	t.Setenv("SEED_SAMPLE", "false")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test ,,http://b.test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 || cfg.GridStep != 10 || cfg.SeedSample {
		t.Errorf("cfg = %+v", cfg)
	}
	if diff := cmp.Diff([]string{"http://a.test", "http://b.test"}, cfg.Origins()); diff != "" {
		t.Errorf("origins (-want +got):\n%s", diff)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.Level())
	}
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("CANVAS_WIDTH", "wide")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric width")
	}
}
