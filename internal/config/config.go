package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fakturscan/internal/layout"
	"fakturscan/internal/parser"
	"fakturscan/internal/table"
	"fakturscan/internal/validator"
	"fakturscan/internal/validator/faktur"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	JWT     JWTConfig
	S3      S3Config
	Log     LogConfig
	Parser  ParserConfig
	Extract ExtractConfig
	Batch   BatchConfig
	CORS    CORSConfig
}

// BatchConfig holds batch and watch mode settings.
type BatchConfig struct {
	Concurrency    int `mapstructure:"concurrency"`
	JobTimeoutSecs int `mapstructure:"job_timeout_secs"`
	DebounceMS     int `mapstructure:"debounce_ms"`
}

// JobTimeout returns the per-document timeout.
func (b *BatchConfig) JobTimeout() time.Duration {
	return time.Duration(b.JobTimeoutSecs) * time.Second
}

// Debounce returns the quiet period a watched file must see before it is parsed.
func (b *BatchConfig) Debounce() time.Duration {
	return time.Duration(b.DebounceMS) * time.Millisecond
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExtractConfig selects the token extraction strategies and their order.
type ExtractConfig struct {
	Order []string `mapstructure:"order"`
}

// ParserConfig holds the tunables of the table parser and tax validator.
type ParserConfig struct {
	RowThresholdPx         float64 `mapstructure:"row_threshold_px"`
	MinOverlapRatio        float64 `mapstructure:"min_overlap_ratio"`
	DescriptionGuardRatio  float64 `mapstructure:"description_guard_ratio"`
	ExpansionMinPx         float64 `mapstructure:"expansion_min_px"`
	ExpansionRatio         float64 `mapstructure:"expansion_ratio"`
	HeaderBandPx           float64 `mapstructure:"header_band_px"`
	ClusterGapPx           float64 `mapstructure:"cluster_gap_px"`
	ToleranceRatio         float64 `mapstructure:"tolerance_ratio"`
	MinToleranceMinorUnits int64   `mapstructure:"min_tolerance_minor_units"`
	ApproveThreshold       float64 `mapstructure:"approve_threshold"`
	LowOCRConfidence       float64 `mapstructure:"low_ocr_confidence"`
	DebugTokenCap          int     `mapstructure:"debug_token_cap"`
}

// Options converts the configuration into parser options.
func (p *ParserConfig) Options() parser.Options {
	return parser.Options{
		Layout: layout.Options{
			RowThreshold:   p.RowThresholdPx,
			ExpansionMinPx: p.ExpansionMinPx,
			ExpansionRatio: p.ExpansionRatio,
			HeaderBandPx:   p.HeaderBandPx,
			ClusterGapPx:   p.ClusterGapPx,
		},
		Table: table.Options{
			MinOverlapRatio:       p.MinOverlapRatio,
			DescriptionGuardRatio: p.DescriptionGuardRatio,
		},
		Validator: validator.Options{
			Tolerance:        faktur.NewTolerance(p.ToleranceRatio, p.MinToleranceMinorUnits),
			ApproveThreshold: p.ApproveThreshold,
			LowOCRConfidence: p.LowOCRConfidence,
		},
		DebugTokenCap: p.DebugTokenCap,
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open_conns"`
	MaxIdle  int    `mapstructure:"max_idle_conns"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds service token signing settings.
type JWTConfig struct {
	Secret       string        `mapstructure:"secret"`
	Issuer       string        `mapstructure:"issuer"`
	AccessExpiry time.Duration `mapstructure:"access_expiry"`
}

// S3Config holds result archive settings. Endpoint is set for S3-compatible stores.
type S3Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	Region        string        `mapstructure:"region"`
	Bucket        string        `mapstructure:"bucket"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key_id"`
	SecretKey     string        `mapstructure:"secret_access_key"`
	Prefix        string        `mapstructure:"prefix"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the FAKTURSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FAKTURSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 20)

	// DB defaults
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "fakturscan")
	v.SetDefault("db.password", "fakturscan_secret")
	v.SetDefault("db.name", "fakturscan")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "fakturscan")
	v.SetDefault("jwt.access_expiry", "24h")

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "ap-southeast-3")
	v.SetDefault("s3.bucket", "fakturscan-results")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "results/")
	v.SetDefault("s3.presign_expiry", "1h")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Parser defaults mirror parser.DefaultOptions
	v.SetDefault("parser.row_threshold_px", 3.0)
	v.SetDefault("parser.min_overlap_ratio", 0.10)
	v.SetDefault("parser.description_guard_ratio", 0.9)
	v.SetDefault("parser.expansion_min_px", 10.0)
	v.SetDefault("parser.expansion_ratio", 0.05)
	v.SetDefault("parser.header_band_px", 60.0)
	v.SetDefault("parser.cluster_gap_px", 12.0)
	v.SetDefault("parser.tolerance_ratio", 0.02)
	v.SetDefault("parser.min_tolerance_minor_units", 100)
	v.SetDefault("parser.approve_threshold", 0.95)
	v.SetDefault("parser.low_ocr_confidence", 0.5)
	v.SetDefault("parser.debug_token_cap", 500)

	v.SetDefault("extract.order", "vision-json,pdf-text,plain-text")

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.job_timeout_secs", 30)
	v.SetDefault("batch.debounce_ms", 500)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "FAKTURSCAN_SERVER_PORT",
		"server.read_timeout":              "FAKTURSCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "FAKTURSCAN_SERVER_WRITE_TIMEOUT",
		"server.environment":               "FAKTURSCAN_SERVER_ENVIRONMENT",
		"server.max_upload_mb":             "FAKTURSCAN_SERVER_MAX_UPLOAD_MB",
		"db.enabled":                       "FAKTURSCAN_DB_ENABLED",
		"db.host":                          "FAKTURSCAN_DB_HOST",
		"db.port":                          "FAKTURSCAN_DB_PORT",
		"db.user":                          "FAKTURSCAN_DB_USER",
		"db.password":                      "FAKTURSCAN_DB_PASSWORD",
		"db.name":                          "FAKTURSCAN_DB_NAME",
		"db.sslmode":                       "FAKTURSCAN_DB_SSLMODE",
		"db.max_open_conns":                "FAKTURSCAN_DB_MAX_OPEN_CONNS",
		"db.max_idle_conns":                "FAKTURSCAN_DB_MAX_IDLE_CONNS",
		"jwt.secret":                       "FAKTURSCAN_JWT_SECRET",
		"jwt.issuer":                       "FAKTURSCAN_JWT_ISSUER",
		"jwt.access_expiry":                "FAKTURSCAN_JWT_ACCESS_EXPIRY",
		"s3.enabled":                       "FAKTURSCAN_S3_ENABLED",
		"s3.region":                        "FAKTURSCAN_S3_REGION",
		"s3.bucket":                        "FAKTURSCAN_S3_BUCKET",
		"s3.endpoint":                      "FAKTURSCAN_S3_ENDPOINT",
		"s3.access_key_id":                 "FAKTURSCAN_S3_ACCESS_KEY_ID",
		"s3.secret_access_key":             "FAKTURSCAN_S3_SECRET_ACCESS_KEY",
		"s3.prefix":                        "FAKTURSCAN_S3_PREFIX",
		"s3.presign_expiry":                "FAKTURSCAN_S3_PRESIGN_EXPIRY",
		"log.level":                        "FAKTURSCAN_LOG_LEVEL",
		"log.format":                       "FAKTURSCAN_LOG_FORMAT",
		"cors.allowed_origins":             "FAKTURSCAN_CORS_ALLOWED_ORIGINS",
		"parser.row_threshold_px":          "FAKTURSCAN_PARSER_ROW_THRESHOLD_PX",
		"parser.min_overlap_ratio":         "FAKTURSCAN_PARSER_MIN_OVERLAP_RATIO",
		"parser.description_guard_ratio":   "FAKTURSCAN_PARSER_DESCRIPTION_GUARD_RATIO",
		"parser.expansion_min_px":          "FAKTURSCAN_PARSER_EXPANSION_MIN_PX",
		"parser.expansion_ratio":           "FAKTURSCAN_PARSER_EXPANSION_RATIO",
		"parser.header_band_px":            "FAKTURSCAN_PARSER_HEADER_BAND_PX",
		"parser.cluster_gap_px":            "FAKTURSCAN_PARSER_CLUSTER_GAP_PX",
		"parser.tolerance_ratio":           "FAKTURSCAN_PARSER_TOLERANCE_RATIO",
		"parser.min_tolerance_minor_units": "FAKTURSCAN_PARSER_MIN_TOLERANCE_MINOR_UNITS",
		"parser.approve_threshold":         "FAKTURSCAN_PARSER_APPROVE_THRESHOLD",
		"parser.low_ocr_confidence":        "FAKTURSCAN_PARSER_LOW_OCR_CONFIDENCE",
		"parser.debug_token_cap":           "FAKTURSCAN_PARSER_DEBUG_TOKEN_CAP",
		"extract.order":                    "FAKTURSCAN_EXTRACT_ORDER",
		"batch.concurrency":                "FAKTURSCAN_BATCH_CONCURRENCY",
		"batch.job_timeout_secs":           "FAKTURSCAN_BATCH_JOB_TIMEOUT_SECS",
		"batch.debounce_ms":                "FAKTURSCAN_BATCH_DEBOUNCE_MS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it if FAKTURSCAN_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FAKTURSCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		MaxUploadMB:  v.GetInt64("server.max_upload_mb"),
	}
	cfg.DB = DBConfig{
		Enabled:  v.GetBool("db.enabled"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open_conns"),
		MaxIdle:  v.GetInt("db.max_idle_conns"),
	}
	cfg.JWT = JWTConfig{
		Secret:       v.GetString("jwt.secret"),
		Issuer:       v.GetString("jwt.issuer"),
		AccessExpiry: v.GetDuration("jwt.access_expiry"),
	}
	cfg.S3 = S3Config{
		Enabled:       v.GetBool("s3.enabled"),
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key_id"),
		SecretKey:     v.GetString("s3.secret_access_key"),
		Prefix:        v.GetString("s3.prefix"),
		PresignExpiry: v.GetDuration("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Parser = ParserConfig{
		RowThresholdPx:         v.GetFloat64("parser.row_threshold_px"),
		MinOverlapRatio:        v.GetFloat64("parser.min_overlap_ratio"),
		DescriptionGuardRatio:  v.GetFloat64("parser.description_guard_ratio"),
		ExpansionMinPx:         v.GetFloat64("parser.expansion_min_px"),
		ExpansionRatio:         v.GetFloat64("parser.expansion_ratio"),
		HeaderBandPx:           v.GetFloat64("parser.header_band_px"),
		ClusterGapPx:           v.GetFloat64("parser.cluster_gap_px"),
		ToleranceRatio:         v.GetFloat64("parser.tolerance_ratio"),
		MinToleranceMinorUnits: v.GetInt64("parser.min_tolerance_minor_units"),
		ApproveThreshold:       v.GetFloat64("parser.approve_threshold"),
		LowOCRConfidence:       v.GetFloat64("parser.low_ocr_confidence"),
		DebugTokenCap:          v.GetInt("parser.debug_token_cap"),
	}
	cfg.Extract = ExtractConfig{
		Order: splitList(v.GetString("extract.order")),
	}
	cfg.Batch = BatchConfig{
		Concurrency:    v.GetInt("batch.concurrency"),
		JobTimeoutSecs: v.GetInt("batch.job_timeout_secs"),
		DebounceMS:     v.GetInt("batch.debounce_ms"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the parser or batch runner cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency))
	}
	if c.Batch.JobTimeoutSecs < 1 {
		errs = append(errs, fmt.Errorf("batch.job_timeout_secs must be positive, got %d", c.Batch.JobTimeoutSecs))
	}
	for name, r := range map[string]float64{
		"parser.min_overlap_ratio":       c.Parser.MinOverlapRatio,
		"parser.description_guard_ratio": c.Parser.DescriptionGuardRatio,
		"parser.tolerance_ratio":         c.Parser.ToleranceRatio,
		"parser.approve_threshold":       c.Parser.ApproveThreshold,
		"parser.low_ocr_confidence":      c.Parser.LowOCRConfidence,
	} {
		if r < 0 || r > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %g", name, r))
		}
	}
	if c.Parser.RowThresholdPx <= 0 {
		errs = append(errs, fmt.Errorf("parser.row_threshold_px must be positive, got %g", c.Parser.RowThresholdPx))
	}
	if c.Parser.MinToleranceMinorUnits < 0 {
		errs = append(errs, errors.New("parser.min_tolerance_minor_units must not be negative"))
	}
	if c.Parser.DebugTokenCap < 0 {
		errs = append(errs, errors.New("parser.debug_token_cap must not be negative"))
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, errors.New("s3.bucket is required when s3.enabled is set"))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
