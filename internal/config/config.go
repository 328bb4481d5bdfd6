package config

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port         int     `envconfig:"PORT" default:"8080"`
	SceneFile    string  `envconfig:"SCENE_FILE" default:"./data/scene.json"`
	CanvasWidth  int     `envconfig:"CANVAS_WIDTH" default:"1000"`
	CanvasHeight int     `envconfig:"CANVAS_HEIGHT" default:"700"`
	GridStep     float64 `envconfig:"GRID_STEP" default:"20"`
	SeedSample   bool    `envconfig:"SEED_SAMPLE" default:"true"`

	HitMinTolerance float64 `envconfig:"HIT_MIN_TOLERANCE" default:"20"`
	HitEpsilon      float64 `envconfig:"HIT_EPSILON" default:"1e-6"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Optional: snapshots are kept in Postgres only when set.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Optional: mutating routes require a token only when set.
	OperatorPassword string `envconfig:"OPERATOR_PASSWORD"`
	JWTSecret        string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`

	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level maps LogLevel onto slog; unknown names fall back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
