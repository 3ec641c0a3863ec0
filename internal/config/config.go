// Package config loads prodiplan settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	// APIURL is the backend base URL. Empty means no backend.
	APIURL string
	// DemoMode uses the in-process demo identity provider and a simulated
	// submitter instead of the backend.
	DemoMode bool

	DBPath        string
	TokenPath     string
	LogLevel      string
	LogFormat     string
	LogPath       string
	QuestionsFile string

	EssayDuration        time.Duration
	SubmitTimeout        time.Duration
	SimulatedDelay       time.Duration
	ExpiredFailurePolicy assessment.ExpiredFailurePolicy
	// AnalysisDelay is how long a submitted attempt stays in analysis when
	// results are produced locally (demo mode and mock-api).
	AnalysisDelay time.Duration

	DemoSecret string
	MockAddr   string
}

// Load reads configuration from environment variables with defaults.
// A .env file in the working directory is loaded if present.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	dbPath, err := defaultDBPath()
	if err != nil {
		return nil, err
	}
	tokenPath, err := defaultTokenPath()
	if err != nil {
		return nil, err
	}
	logPath, err := logging.DefaultLogPath()
	if err != nil {
		return nil, err
	}

	policy, err := assessment.ParseExpiredFailurePolicy(getEnv("PRODIPLAN_EXPIRED_FAILURE_POLICY", "retry"))
	if err != nil {
		return nil, err
	}

	apiURL := strings.TrimRight(getEnv("PRODIPLAN_API_URL", ""), "/")
	cfg := &Config{
		APIURL:               apiURL,
		DemoMode:             getEnvBool("PRODIPLAN_DEMO", DefaultDemoMode(apiURL)),
		DBPath:               getEnv("PRODIPLAN_DB", dbPath),
		TokenPath:            getEnv("PRODIPLAN_TOKEN_FILE", tokenPath),
		LogLevel:             getEnv("PRODIPLAN_LOG_LEVEL", "info"),
		LogFormat:            getEnv("PRODIPLAN_LOG_FORMAT", "json"),
		LogPath:              getEnv("PRODIPLAN_LOG_FILE", logPath),
		QuestionsFile:        getEnv("PRODIPLAN_QUESTIONS_FILE", ""),
		EssayDuration:        getEnvDuration("PRODIPLAN_ESSAY_DURATION", assessment.DefaultDurationSeconds*time.Second),
		SubmitTimeout:        getEnvDuration("PRODIPLAN_SUBMIT_TIMEOUT", assessment.DefaultSubmitTimeout),
		SimulatedDelay:       getEnvDuration("PRODIPLAN_SIMULATED_DELAY", 2*time.Second),
		ExpiredFailurePolicy: policy,
		AnalysisDelay:        getEnvDuration("PRODIPLAN_ANALYSIS_DELAY", 0),
		DemoSecret:           getEnv("PRODIPLAN_DEMO_SECRET", "prodiplan-demo-secret"),
		MockAddr:             getEnv("PRODIPLAN_MOCK_ADDR", ":4001"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultDemoMode decides demo mode for a PRODIPLAN_API_URL taken from the
// environment. It is on when no backend is configured or the URL names
// localhost, so a stale development .env never reaches a real backend by
// accident. Set PRODIPLAN_DEMO=false, or pass the URL with UseAPIURL, to
// talk to a local backend such as mock-api.
func DefaultDemoMode(apiURL string) bool {
	return apiURL == "" || strings.Contains(apiURL, "localhost")
}

// UseAPIURL points the config at a backend the user chose explicitly, such
// as the --api-url flag. That choice always turns demo mode off; apply an
// explicit demo setting afterwards to turn it back on.
func (c *Config) UseAPIURL(u string) {
	c.APIURL = strings.TrimRight(u, "/")
	c.DemoMode = false
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.EssayDuration < time.Second {
		errs = append(errs, fmt.Errorf("essay duration must be at least 1s, got %s", c.EssayDuration))
	}
	if c.SubmitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("submit timeout must be positive, got %s", c.SubmitTimeout))
	}
	if c.SimulatedDelay < 0 {
		errs = append(errs, fmt.Errorf("simulated delay must not be negative, got %s", c.SimulatedDelay))
	}
	if c.AnalysisDelay < 0 {
		errs = append(errs, fmt.Errorf("analysis delay must not be negative, got %s", c.AnalysisDelay))
	}
	if !c.DemoMode {
		if c.APIURL == "" {
			errs = append(errs, errors.New("PRODIPLAN_API_URL is required when demo mode is off"))
		} else if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid API URL %q", c.APIURL))
		}
	}
	if c.DemoMode && c.DemoSecret == "" {
		errs = append(errs, errors.New("demo secret must not be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path must not be empty"))
	}
	return errors.Join(errs...)
}

// EssaySeconds is EssayDuration in whole seconds.
func (c *Config) EssaySeconds() int {
	return int(c.EssayDuration / time.Second)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvDuration accepts Go durations ("15m") or plain seconds ("900").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func defaultDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "prodiplan", "prodiplan.db"), nil
}

func defaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "prodiplan", "session.json"), nil
}
