package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BMI_CONFIG", "")
	t.Setenv("PORT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.Embedder.EmbeddingSize != 512 {
		t.Fatalf("expected embedding size 512, got %d", cfg.Embedder.EmbeddingSize)
	}
	if cfg.UploadDir != filepath.Join("static", "uploads") {
		t.Fatalf("unexpected upload dir: %s", cfg.UploadDir)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bmi.yaml")
	content := `port: 7000
upload_dir: /tmp/bmi-uploads
shutdown_timeout: 3s
embedder:
  model_path: /models/embed.onnx
  image_size: 96
regressor:
  model_path: /models/reg.onnx
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("PORT", "9000")
	t.Setenv("REGRESSOR_MODEL_PATH", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected env port to win, got %d", cfg.Port)
	}
	if cfg.UploadDir != "/tmp/bmi-uploads" {
		t.Fatalf("unexpected upload dir: %s", cfg.UploadDir)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected shutdown timeout: %s", cfg.ShutdownTimeout)
	}
	if cfg.Embedder.ModelPath != "/models/embed.onnx" || cfg.Embedder.ImageSize != 96 {
		t.Fatalf("unexpected embedder config: %+v", cfg.Embedder)
	}
	if cfg.Embedder.InputName != "input" {
		t.Fatalf("unset inline fields should keep defaults, got %q", cfg.Embedder.InputName)
	}
	if cfg.Regressor.ModelPath != "/models/reg.onnx" {
		t.Fatalf("unexpected regressor path: %s", cfg.Regressor.ModelPath)
	}
}

func TestLoadIgnoresMalformedEnvNumbers(t *testing.T) {
	t.Setenv("BMI_CONFIG", "")
	t.Setenv("PORT", "not-a-port")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 5000 {
		t.Fatalf("expected fallback port, got %d", cfg.Port)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Port = 0
	cfg.UploadDir = ""
	cfg.FaceMargin = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
