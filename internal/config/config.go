package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Overlay  OverlayConfig  `yaml:"overlay" mapstructure:"overlay"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the input tables. Dir may be a local directory or an
// http(s):// or ftp:// base URL.
type InputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Links     string `yaml:"links" mapstructure:"links"`
	Nodes     string `yaml:"nodes" mapstructure:"nodes"`
	Demand    string `yaml:"demand" mapstructure:"demand"`
	Zones     string `yaml:"zones" mapstructure:"zones"`
	POIs      string `yaml:"pois" mapstructure:"pois"`
	Encoding  string `yaml:"encoding" mapstructure:"encoding"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Strict    bool   `yaml:"strict" mapstructure:"strict"`
}

// FetchConfig configures remote input retrieval.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// AnalysisConfig holds the capacity and classification constants.
type AnalysisConfig struct {
	CapacityFactor        float64 `yaml:"capacity_factor" mapstructure:"capacity_factor"`
	OverloadThreshold     float64 `yaml:"overload_threshold" mapstructure:"overload_threshold"`
	CriticalOverloadCount int     `yaml:"critical_overload_count" mapstructure:"critical_overload_count"`
	CriticalDegree        int     `yaml:"critical_degree" mapstructure:"critical_degree"`
	ZeroCapacity          string  `yaml:"zero_capacity" mapstructure:"zero_capacity"` // default | skip | fail
}

// OverlayConfig configures critical-node buffers and CRS alignment.
type OverlayConfig struct {
	BufferRadius float64 `yaml:"buffer_radius" mapstructure:"buffer_radius"`
	QuadSegs     int     `yaml:"quad_segs" mapstructure:"quad_segs"`
	NodesCRS     string  `yaml:"nodes_crs" mapstructure:"nodes_crs"`
	ZonesCRS     string  `yaml:"zones_crs" mapstructure:"zones_crs"`
	POIsCRS      string  `yaml:"pois_crs" mapstructure:"pois_crs"`
}

// OutputConfig selects report format and optional artefacts.
type OutputConfig struct {
	Format    string `yaml:"format" mapstructure:"format"`
	Plot      string `yaml:"plot" mapstructure:"plot"`
	GeoJSON   string `yaml:"geojson" mapstructure:"geojson"`
	Shapefile string `yaml:"shapefile" mapstructure:"shapefile"`
}

// StoreConfig configures the optional run history backend.
type StoreConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, chokepoint.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("chokepoint")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHOKEPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.dir", ".")
	v.SetDefault("input.links", "link.csv")
	v.SetDefault("input.nodes", "node.csv")
	v.SetDefault("input.demand", "demand.csv")
	v.SetDefault("input.zones", "zone.csv")
	v.SetDefault("input.pois", "poi.csv")
	v.SetDefault("input.encoding", "utf-8")
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.strict", false)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_limit", 5.0)
	v.SetDefault("fetch.user_agent", "chokepoint/1.0")
	v.SetDefault("analysis.capacity_factor", 10.0)
	v.SetDefault("analysis.overload_threshold", 1.0)
	v.SetDefault("analysis.critical_overload_count", 1)
	v.SetDefault("analysis.critical_degree", 3)
	v.SetDefault("analysis.zero_capacity", "default")
	v.SetDefault("overlay.buffer_radius", 100.0)
	v.SetDefault("overlay.quad_segs", 16)
	v.SetDefault("overlay.nodes_crs", "")
	v.SetDefault("overlay.zones_crs", "")
	v.SetDefault("overlay.pois_crs", "")
	v.SetDefault("output.format", "table")
	v.SetDefault("output.plot", "")
	v.SetDefault("output.geojson", "")
	v.SetDefault("output.shapefile", "")
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "chokepoint.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the analysis cannot run with.
func (c *Config) Validate() error {
	switch c.Analysis.ZeroCapacity {
	case "default", "skip", "fail":
	default:
		return eris.Errorf("config: analysis.zero_capacity must be default, skip or fail, got %q", c.Analysis.ZeroCapacity)
	}
	if c.Overlay.BufferRadius <= 0 {
		return eris.Errorf("config: overlay.buffer_radius must be positive, got %v", c.Overlay.BufferRadius)
	}
	if c.Overlay.QuadSegs < 1 {
		return eris.Errorf("config: overlay.quad_segs must be at least 1, got %d", c.Overlay.QuadSegs)
	}
	if len([]rune(c.Input.Delimiter)) != 1 {
		return eris.Errorf("config: input.delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	return nil
}

// DelimiterRune returns the configured CSV field separator.
func (c InputConfig) DelimiterRune() rune {
	r := []rune(c.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
