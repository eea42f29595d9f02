package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Events     EventsConfig     `yaml:"events"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port               int      `yaml:"port"`
	MetricsPort        int      `yaml:"metrics_port"`
	AdminToken         string   `yaml:"admin_token"`
	CORSOrigins        []string `yaml:"cors_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type ValidationConfig struct {
	Tolerance                float64         `yaml:"tolerance"`
	ReciprocityTolerance     float64         `yaml:"reciprocity_tolerance"`
	Engine                   string          `yaml:"engine"`
	CrossCheckEngine         string          `yaml:"cross_check_engine"`
	MaxIterations            int             `yaml:"max_iterations"`
	ConvergenceThreshold     float64         `yaml:"convergence_threshold"`
	MethodAgreementThreshold float64         `yaml:"method_agreement_threshold"`
	ProjectWorkers           int             `yaml:"project_workers"`
	SelfCheck                bool            `yaml:"self_check"`
	RandomIndex              map[int]float64 `yaml:"random_index"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EngineOptions builds engine options from the validation section,
// applying any random index overrides on top of Saaty's table.
func (c *Config) EngineOptions() (ahp.EngineOptions, error) {
	ri, err := ahp.DefaultRandomIndex().WithOverrides(c.Validation.RandomIndex)
	if err != nil {
		return ahp.EngineOptions{}, err
	}
	return ahp.EngineOptions{
		MaxIterations:        c.Validation.MaxIterations,
		ConvergenceThreshold: c.Validation.ConvergenceThreshold,
		RandomIndex:          ri,
	}, nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 120,
		},
		Validation: ValidationConfig{
			Tolerance:                0.001,
			ReciprocityTolerance:     ahp.DefaultReciprocityTolerance,
			Engine:                   ahp.EnginePower,
			CrossCheckEngine:         ahp.EngineGeometricMean,
			MaxIterations:            ahp.DefaultMaxIterations,
			ConvergenceThreshold:     ahp.DefaultConvergenceThreshold,
			MethodAgreementThreshold: 0.01,
			ProjectWorkers:           4,
			SelfCheck:                true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	v := c.Validation
	if v.Tolerance <= 0 {
		return fmt.Errorf("validation.tolerance must be positive, got %g", v.Tolerance)
	}
	if v.ReciprocityTolerance <= 0 {
		return fmt.Errorf("validation.reciprocity_tolerance must be positive, got %g", v.ReciprocityTolerance)
	}
	if v.MaxIterations <= 0 {
		return fmt.Errorf("validation.max_iterations must be positive, got %d", v.MaxIterations)
	}
	if v.ConvergenceThreshold <= 0 {
		return fmt.Errorf("validation.convergence_threshold must be positive, got %g", v.ConvergenceThreshold)
	}
	if v.ProjectWorkers <= 0 {
		return fmt.Errorf("validation.project_workers must be positive, got %d", v.ProjectWorkers)
	}
	if !knownEngine(v.Engine) || v.Engine == "" {
		return fmt.Errorf("validation.engine: unknown engine %q", v.Engine)
	}
	if !knownEngine(v.CrossCheckEngine) {
		return fmt.Errorf("validation.cross_check_engine: unknown engine %q", v.CrossCheckEngine)
	}
	if _, err := c.EngineOptions(); err != nil {
		return fmt.Errorf("validation.random_index: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// knownEngine accepts "" so the cross-check engine can be disabled.
func knownEngine(name string) bool {
	switch name {
	case "", ahp.EnginePower, ahp.EngineGeometricMean, ahp.EngineEigen:
		return true
	}
	return false
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CROSSCHECK_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("CROSSCHECK_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("CROSSCHECK_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("CROSSCHECK_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
	if v := os.Getenv("CROSSCHECK_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("CROSSCHECK_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("CROSSCHECK_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("CROSSCHECK_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Validation.Tolerance = f
		}
	}
	if v := os.Getenv("CROSSCHECK_ENGINE"); v != "" {
		cfg.Validation.Engine = v
	}
	if v := os.Getenv("CROSSCHECK_CROSS_CHECK_ENGINE"); v != "" {
		cfg.Validation.CrossCheckEngine = v
	}
	if v := os.Getenv("CROSSCHECK_PROJECT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Validation.ProjectWorkers = n
		}
	}
	if v := os.Getenv("CROSSCHECK_RECIPROCITY_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Validation.ReciprocityTolerance = f
		}
	}
	if v := os.Getenv("CROSSCHECK_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Validation.MaxIterations = n
		}
	}
	if v := os.Getenv("CROSSCHECK_CONVERGENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Validation.ConvergenceThreshold = f
		}
	}
	if v := os.Getenv("CROSSCHECK_METHOD_AGREEMENT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Validation.MethodAgreementThreshold = f
		}
	}
	if v := os.Getenv("CROSSCHECK_SELF_CHECK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Validation.SelfCheck = b
		}
	}
	if v := os.Getenv("CROSSCHECK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CROSSCHECK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
