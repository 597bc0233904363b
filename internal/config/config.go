package config

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/dnd/internal/errors"
	"github.com/vango-dev/dnd/pkg/upload"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "dnd.json"

	DefaultHost       = "localhost"
	DefaultPort       = 8420
	DefaultBasePath   = "/dnd"
	DefaultMetrics    = "/metrics"
	DefaultNamespace  = "dnd"
	DefaultTracerName = "dnd"
	DefaultUploadDir  = "uploads"
	DefaultMaxSize    = 10 << 20
	DefaultTempExpiry = "1h"

	BackendDisk = "disk"
	BackendS3   = "s3"
)

// Config represents dnd.json.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Metrics MetricsConfig `json:"metrics"`
	Tracing TracingConfig `json:"tracing"`
	Upload  UploadConfig  `json:"upload"`
	Log     LogConfig     `json:"log"`

	configPath string
}

// ServerConfig configures the bridge server.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// BasePath prefixes the bridge routes (default: "/dnd").
	BasePath string `json:"basePath,omitempty"`

	// AllowedOrigins lists origins accepted on the WebSocket upgrade.
	// Empty accepts same-origin requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	// Scenario is a scenario file whose controllers are bound to every
	// connected page.
	Scenario string `json:"scenario,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Path      string `json:"path,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig configures OpenTelemetry spans.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty"`
}

// UploadConfig selects where dropped files are stored.
type UploadConfig struct {
	// Backend is "disk" or "s3" (default: "disk").
	Backend string `json:"backend,omitempty"`

	// Dir is the DiskStore directory, relative to the config file.
	Dir string `json:"dir,omitempty"`

	MaxFileSize  int64    `json:"maxFileSize,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`

	// TempExpiry is how long stored files are kept, e.g. "1h".
	TempExpiry string `json:"tempExpiry,omitempty"`

	S3 S3Config `json:"s3,omitempty"`
}

// S3Config configures the S3 upload backend. Credentials come from
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
type S3Config struct {
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`

	// Endpoint overrides the service endpoint, e.g. for MinIO.
	Endpoint     string `json:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty"`
}

// LogConfig configures slog output.
type LogConfig struct {
	// Level is debug, info, warn or error (default: info).
	Level string `json:"level,omitempty"`

	// Format is "text" or "json" (default: text).
	Format string `json:"format,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads dnd.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ConfigRead).
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'dnd serve' without --config to use defaults")
		}
		return nil, errors.New(errors.ConfigRead).Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.ConfigParse).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// LoadOrDefault is LoadFile, except that an empty path or a missing file
// yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return New(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.ConfigRead).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.ConfigRead).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file, or "." for a
// config that was not loaded from disk.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
	c.Server.BasePath = "/" + strings.Trim(c.Server.BasePath, "/")

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetrics
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}

	if c.Upload.Backend == "" {
		c.Upload.Backend = BackendDisk
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = DefaultUploadDir
	}
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = DefaultMaxSize
	}
	if c.Upload.TempExpiry == "" {
		c.Upload.TempExpiry = DefaultTempExpiry
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.ConfigPort).WithDetailf("server.port is %d", c.Server.Port)
	}
	if _, err := time.ParseDuration(c.Upload.TempExpiry); err != nil {
		return errors.New(errors.ConfigDuration).Wrap(err)
	}
	switch c.Upload.Backend {
	case BackendDisk:
	case BackendS3:
		if c.Upload.S3.Bucket == "" {
			return errors.New(errors.ConfigS3Bucket)
		}
	default:
		return errors.New(errors.ConfigUploadBackend).WithDetailf("got %q; want disk or s3", c.Upload.Backend)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New(errors.ConfigLogFormat).WithDetailf("got %q; want text or json", c.Log.Format)
	}
	return nil
}

// Address returns host:port for the bridge server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// TempExpiry returns Upload.TempExpiry as a duration.
func (c *Config) TempExpiry() time.Duration {
	d, err := time.ParseDuration(c.Upload.TempExpiry)
	if err != nil {
		return time.Hour
	}
	return d
}

// UploadDir resolves Upload.Dir against the config file's directory.
func (c *Config) UploadDir() string {
	if filepath.IsAbs(c.Upload.Dir) {
		return c.Upload.Dir
	}
	return filepath.Join(c.Dir(), c.Upload.Dir)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New(errors.ConfigLogLevel).WithDetailf("got %q", c.Log.Level)
	}
	return level, nil
}

// Logger builds a slog logger writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.Log.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.New(errors.ConfigLogFormat).WithDetailf("got %q", c.Log.Format)
	}
}

// UploadLimits returns the limits applied by upload sinks and handlers.
func (c *Config) UploadLimits() *upload.Config {
	return &upload.Config{
		MaxFileSize:  c.Upload.MaxFileSize,
		AllowedTypes: c.Upload.AllowedTypes,
		TempExpiry:   c.TempExpiry(),
	}
}

// UploadStore builds the configured store.
func (c *Config) UploadStore(ctx context.Context) (upload.Store, error) {
	switch c.Upload.Backend {
	case BackendDisk:
		store, err := upload.NewDiskStore(c.UploadDir(), c.Upload.MaxFileSize)
		if err != nil {
			return nil, errors.New(errors.UploadStore).Wrap(err)
		}
		return store, nil
	case BackendS3:
		client, err := c.S3Client(ctx)
		if err != nil {
			return nil, err
		}
		return upload.NewS3Store(client, c.Upload.S3.Bucket, c.Upload.S3.Prefix, c.Upload.MaxFileSize), nil
	default:
		return nil, errors.New(errors.ConfigUploadBackend).WithDetailf("got %q", c.Upload.Backend)
	}
}

// S3Client builds an S3 client from Upload.S3 and the AWS_* environment.
func (c *Config) S3Client(ctx context.Context) (*s3.Client, error) {
	if _, err := envCredentials(ctx); err != nil {
		return nil, err
	}

	region := c.Upload.S3.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		Credentials:  aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
		UsePathStyle: c.Upload.S3.UsePathStyle,
	}
	if c.Upload.S3.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Upload.S3.Endpoint)
	}
	return s3.New(opts), nil
}

func envCredentials(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.New(errors.ConfigS3Credentials)
	}
	return creds, nil
}

// Exists reports whether dir holds a dnd.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
