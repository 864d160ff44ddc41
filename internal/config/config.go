package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is loaded from ACADIA_* environment variables. Provider credentials
// also fall back to their conventional unprefixed names (OPENAI_API_KEY, ...).
type Config struct {
	DataDir   string `envconfig:"DATA_DIR"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// Model backends
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	OpenAIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIOrg     string `envconfig:"OPENAI_ORG"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	OllamaURL     string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaModel   string `envconfig:"OLLAMA_MODEL" default:"llama3"`

	ModelTimeout        time.Duration `envconfig:"MODEL_TIMEOUT" default:"2m"`
	ModelMaxAttempts    int           `envconfig:"MODEL_MAX_ATTEMPTS" default:"3"`
	ModelRetryBaseDelay time.Duration `envconfig:"MODEL_RETRY_BASE_DELAY" default:"1s"`
	ModelRetryMaxDelay  time.Duration `envconfig:"MODEL_RETRY_MAX_DELAY" default:"20s"`

	// External URL validation
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"5s"`
	ProbeRate    float64       `envconfig:"PROBE_RATE" default:"5"`

	// Code generation
	TemplateDir      string `envconfig:"TEMPLATE_DIR"`
	BuildCommand     string `envconfig:"BUILD_COMMAND"`
	MaxBuildAttempts int    `envconfig:"MAX_BUILD_ATTEMPTS" default:"3"`

	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`

	DBPath             string `ignored:"true"`
	UserPipelineDir    string `ignored:"true"`
	ProjectPipelineDir string `ignored:"true"`
}

func New() (*Config, error) {
	var c Config
	if err := envconfig.Process("acadia", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if c.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		c.DataDir = filepath.Join(homeDir, ".acadia")
	}

	c.DBPath = filepath.Join(c.DataDir, "acadia.db")
	c.UserPipelineDir = filepath.Join(c.DataDir, "pipelines")
	c.ProjectPipelineDir = ".acadia/pipelines"

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.ModelMaxAttempts < 1 {
		return fmt.Errorf("MODEL_MAX_ATTEMPTS must be at least 1, got %d", c.ModelMaxAttempts)
	}
	if c.MaxBuildAttempts < 1 {
		return fmt.Errorf("MAX_BUILD_ATTEMPTS must be at least 1, got %d", c.MaxBuildAttempts)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("PROBE_TIMEOUT must be positive, got %s", c.ProbeTimeout)
	}
	return nil
}

func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(c.UserPipelineDir, 0755); err != nil {
		return err
	}
	return nil
}

func (c *Config) WorkspacesDir() string {
	return filepath.Join(c.DataDir, "workspaces")
}

// PipelineDirs lists pipeline directories in lookup order, project first.
func (c *Config) PipelineDirs() []string {
	return []string{c.ProjectPipelineDir, c.UserPipelineDir}
}
