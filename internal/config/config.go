package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML config file.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML, overridable through
// environment variables.
type FileConfig struct {
	Port         string `yaml:"port"`
	LogLevel     string `yaml:"logLevel"`
	DatabaseURL  string `yaml:"databaseURL"`
	WebhookToken string `yaml:"webhookToken"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	OCRLanguage          string `yaml:"ocrLanguage"`
	OCRDPI               int    `yaml:"ocrDpi"`
	OCRAttempts          int    `yaml:"ocrAttempts"`
	OCRRetryDelaySeconds int    `yaml:"ocrRetryDelaySeconds"`
	PDFMinPageRunes      int    `yaml:"pdfMinPageRunes"`
	PdftoppmPath         string `yaml:"pdftoppmPath"`

	RunTimeoutSeconds      int `yaml:"runTimeoutSeconds"`
	DownloadTimeoutSeconds int `yaml:"downloadTimeoutSeconds"`
}

// Load reads config from path (defaults to config.yaml), applies environment
// overrides, and validates the result.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("WEBHOOK_TOKEN"); v != "" {
		cfg.WebhookToken = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("OCR_LANGUAGE"); v != "" {
		cfg.OCRLanguage = v
	}
	if v := os.Getenv("OCR_DPI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OCRDPI = n
		}
	}
	if v := os.Getenv("OCR_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OCRAttempts = n
		}
	}
	if v := os.Getenv("OCR_RETRY_DELAY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OCRRetryDelaySeconds = n
		}
	}
	if v := os.Getenv("PDF_MIN_PAGE_RUNES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PDFMinPageRunes = n
		}
	}
	if v := os.Getenv("PDFTOPPM_PATH"); v != "" {
		cfg.PdftoppmPath = v
	}
	if v := os.Getenv("RUN_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RunTimeoutSeconds = n
		}
	}
	if v := os.Getenv("DOWNLOAD_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DownloadTimeoutSeconds = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = "eng"
	}
	if cfg.OCRDPI == 0 {
		cfg.OCRDPI = 200
	}
	if cfg.OCRAttempts == 0 {
		cfg.OCRAttempts = 2
	}
	if cfg.OCRRetryDelaySeconds == 0 {
		cfg.OCRRetryDelaySeconds = 1
	}
	if cfg.PDFMinPageRunes == 0 {
		cfg.PDFMinPageRunes = 50
	}
	if cfg.RunTimeoutSeconds == 0 {
		cfg.RunTimeoutSeconds = 300
	}
	if cfg.DownloadTimeoutSeconds == 0 {
		cfg.DownloadTimeoutSeconds = 60
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.MinioEndpoint != "" && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "") {
		return errors.New("config: minio requires minioAccessKey, minioSecretKey and minioBucket")
	}
	if cfg.OCRDPI < 0 {
		return errors.New("config: ocrDpi must be >= 0")
	}
	if cfg.OCRAttempts < 1 {
		return errors.New("config: ocrAttempts must be >= 1")
	}
	if cfg.OCRRetryDelaySeconds < 0 {
		return errors.New("config: ocrRetryDelaySeconds must be >= 0")
	}
	if cfg.PDFMinPageRunes < 0 {
		return errors.New("config: pdfMinPageRunes must be >= 0")
	}
	if cfg.RunTimeoutSeconds < 0 {
		return errors.New("config: runTimeoutSeconds must be >= 0")
	}
	return nil
}
