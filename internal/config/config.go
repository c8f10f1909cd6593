package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opendid-docs/docroutes/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "docroutes.yaml"

	// DefaultAddress is the default listen address of the server.
	DefaultAddress = ":8080"

	// DefaultManifest is the manifest used when none is configured.
	DefaultManifest = "routes.json"

	DefaultMetricsPath   = "/metrics"
	DefaultWebSocketPath = "/_ws"
	DefaultNamespace     = "docroutes"
	DefaultTracerName    = "github.com/opendid-docs/docroutes"
)

// Config represents the complete docroutes.yaml configuration.
type Config struct {
	// Manifests lists route manifests in load order. Entries may be local
	// paths or s3://bucket/key URLs.
	Manifests []string `yaml:"manifests"`

	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Log     LogConfig     `yaml:"log"`
	S3      S3Config      `yaml:"s3"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the host:port to listen on.
	Address string `yaml:"address"`

	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	WebSocket WebSocketConfig `yaml:"websocket"`
}

// WebSocketConfig configures the streaming resolve endpoint.
type WebSocketConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Path            string   `yaml:"path"`
	ReadBufferSize  int      `yaml:"readBufferSize"`
	WriteBufferSize int      `yaml:"writeBufferSize"`
	AllowedOrigins  []string `yaml:"allowedOrigins"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry spans.
type TracingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TracerName string `yaml:"tracerName"`
}

// LogConfig configures the slog handler installed by the CLI.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// S3Config holds credentials for s3:// manifests.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	PathStyle bool   `yaml:"pathStyle"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Manifests: []string{DefaultManifest},
		Server: ServerConfig{
			Address:           DefaultAddress,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			WebSocket: WebSocketConfig{
				Enabled:         true,
				Path:            DefaultWebSocketPath,
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
			},
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for docroutes.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path and applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("D001").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass --manifest explicitly")
		}
		return nil, errors.New("D002").Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		e := errors.New("D002").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML")
		if line := yamlErrorLine(err); line > 0 {
			e.WithLocation(path, line, 0)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.ApplyEnv(os.Getenv)
	cfg.applyDefaults()

	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := New()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("DOCROUTES_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := getenv("DOCROUTES_MANIFESTS"); v != "" {
		var manifests []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				manifests = append(manifests, m)
			}
		}
		c.Manifests = manifests
	}
	if v := getenv("DOCROUTES_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("DOCROUTES_LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v := getenv("AWS_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := getenv("AWS_ACCESS_KEY_ID"); v != "" {
		c.S3.AccessKey = v
	}
	if v := getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		c.S3.SecretKey = v
	}
	if v := getenv("DOCROUTES_S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.WebSocket.Path == "" {
		c.Server.WebSocket.Path = DefaultWebSocketPath
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Manifests) == 0 {
		problems = append(problems, "at least one manifest is required")
	}
	if strings.TrimSpace(c.Server.Address) == "" {
		problems = append(problems, "server.address must not be empty")
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		problems = append(problems, fmt.Sprintf("log.level %q is not one of %s", c.Log.Level, strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		problems = append(problems, fmt.Sprintf("log.format %q is not one of %s", c.Log.Format, strings.Join(logFormats, ", ")))
	}
	if c.Server.WebSocket.Enabled {
		if c.Server.WebSocket.ReadBufferSize <= 0 || c.Server.WebSocket.WriteBufferSize <= 0 {
			problems = append(problems, "server.websocket buffer sizes must be positive")
		}
		if !strings.HasPrefix(c.Server.WebSocket.Path, "/") {
			problems = append(problems, "server.websocket.path must start with /")
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, "metrics.path must start with /")
	}

	if len(problems) > 0 {
		return errors.New("D002").
			WithDetail(strings.Join(problems, "; "))
	}
	return nil
}

// ManifestPaths returns the configured manifests with relative file paths
// resolved against the config directory. s3:// URLs are returned unchanged.
func (c *Config) ManifestPaths() []string {
	out := make([]string, 0, len(c.Manifests))
	for _, m := range c.Manifests {
		if strings.Contains(m, "://") || filepath.IsAbs(m) || c.Dir() == "" {
			out = append(out, m)
			continue
		}
		out = append(out, filepath.Join(c.Dir(), m))
	}
	return out
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory holding
// docroutes.yaml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("D001").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest ancestor holding docroutes.yaml.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

// yamlErrorLine extracts the first "line N" reference from a yaml.v3 error.
func yamlErrorLine(err error) int {
	var typeErr *yaml.TypeError
	msg := err.Error()
	if stderrors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}
	idx := strings.Index(msg, "line ")
	if idx < 0 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(msg[idx:], "line %d", &line); scanErr != nil {
		return 0
	}
	return line
}
