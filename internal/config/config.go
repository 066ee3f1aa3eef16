package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ModelConfig describes one ONNX artifact and the tensor names bound to it.
type ModelConfig struct {
	ModelPath  string `yaml:"model_path"`
	InputName  string `yaml:"input_name"`
	OutputName string `yaml:"output_name"`
}

// EmbedderConfig describes the face embedding network.
type EmbedderConfig struct {
	ModelConfig   `yaml:",inline"`
	ImageSize     int `yaml:"image_size"`
	EmbeddingSize int `yaml:"embedding_size"`
}

type Config struct {
	Port            int            `yaml:"port"`
	LogLevel        string         `yaml:"log_level"`
	UploadDir       string         `yaml:"upload_dir"`
	MaxUploadBytes  int64          `yaml:"max_upload_bytes"`
	OnnxLibraryPath string         `yaml:"onnx_library_path"`
	Embedder        EmbedderConfig `yaml:"embedder"`
	Regressor       ModelConfig    `yaml:"regressor"`
	CascadePath     string         `yaml:"cascade_path"`
	FaceMargin      int            `yaml:"face_margin"`
	DatabaseDSN     string         `yaml:"database_dsn"`
	RedisAddr       string         `yaml:"redis_addr"`
	JWTSecret       string         `yaml:"jwt_secret"`
	JWTAudience     string         `yaml:"jwt_audience"`
	ShutdownTimeout time.Duration  `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when neither a file nor the environment says otherwise.
func Default() *Config {
	return &Config{
		Port:           5000,
		LogLevel:       "info",
		UploadDir:      filepath.Join("static", "uploads"),
		MaxUploadBytes: 10 << 20,
		Embedder: EmbedderConfig{
			ModelConfig: ModelConfig{
				ModelPath:  filepath.Join("models", "facenet_vggface2.onnx"),
				InputName:  "input",
				OutputName: "output",
			},
			ImageSize:     160,
			EmbeddingSize: 512,
		},
		Regressor: ModelConfig{
			ModelPath:  filepath.Join("models", "XGBM.onnx"),
			InputName:  "float_input",
			OutputName: "variable",
		},
		CascadePath:     filepath.Join("models", "haarcascade_frontalface_default.xml"),
		DatabaseDSN:     "bmi.db",
		JWTSecret:       "dev-secret",
		ShutdownTimeout: 15 * time.Second,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("BMI_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.OnnxLibraryPath = getEnv("ONNX_LIBRARY_PATH", c.OnnxLibraryPath)
	c.Embedder.ModelPath = getEnv("EMBEDDER_MODEL_PATH", c.Embedder.ModelPath)
	c.Embedder.ImageSize = getEnvAsInt("EMBEDDER_IMAGE_SIZE", c.Embedder.ImageSize)
	c.Embedder.EmbeddingSize = getEnvAsInt("EMBEDDING_SIZE", c.Embedder.EmbeddingSize)
	c.Regressor.ModelPath = getEnv("REGRESSOR_MODEL_PATH", c.Regressor.ModelPath)
	c.CascadePath = getEnv("CASCADE_PATH", c.CascadePath)
	c.FaceMargin = getEnvAsInt("FACE_MARGIN", c.FaceMargin)
	c.DatabaseDSN = getEnv("DATABASE_DSN", c.DatabaseDSN)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTAudience = getEnv("JWT_AUDIENCE", c.JWTAudience)
	c.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

// Validate reports settings that would make the server unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("upload_dir is required"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	if c.Embedder.ImageSize <= 0 {
		errs = append(errs, errors.New("embedder.image_size must be positive"))
	}
	if c.Embedder.EmbeddingSize <= 0 {
		errs = append(errs, errors.New("embedder.embedding_size must be positive"))
	}
	if c.FaceMargin < 0 {
		errs = append(errs, errors.New("face_margin must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
