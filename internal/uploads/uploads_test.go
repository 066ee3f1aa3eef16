package uploads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestResetRemovesFilesLinksAndDirs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.jpg"), "a")
	if err := os.MkdirAll(filepath.Join(dir, "nested", "deeper"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(dir, "nested", "deeper", "b.jpg"), "b")

	outside := t.TempDir()
	mustWrite(t, filepath.Join(outside, "keep.txt"), "keep")
	if err := os.Symlink(outside, filepath.Join(dir, "link")); err != nil {
		t.Fatal(err)
	}

	if err := Reset(dir, zap.NewNop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("directory should still exist: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
	if _, err := os.Stat(filepath.Join(outside, "keep.txt")); err != nil {
		t.Fatalf("symlink target contents must survive: %v", err)
	}
}

func TestResetMissingDirectoryOnlyLogs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	if err := Reset(missing, zap.New(core)); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatal("Reset must not create the directory")
	}
}

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"front.jpg", true},
		{"front.JPEG", true},
		{"side.png", true},
		{"notes.txt", false},
		{"archive.jpg.zip", false},
		{"noext", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateExtension(tt.name)
		if tt.valid && err != nil {
			t.Errorf("ValidateExtension(%q) = %v, expected nil", tt.name, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("ValidateExtension(%q) = %v, expected ErrInvalidExtension", tt.name, err)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"My cool photo.jpg", "My_cool_photo.jpg"},
		{"../../etc/passwd", "etc_passwd"},
		{`C:\Users\me\front.png`, "C_Users_me_front.png"},
		{"Ünïcödé.jpeg", "Unicode.jpeg"},
		{"...", fallbackName},
		{"日本.jpg", "jpg"},
		{"  spaced   out .png", "spaced_out_.png"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.expected {
			t.Errorf("SanitizeFilename(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeRenamesSingleEntry(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "holiday.png"), "png")

	if err := Normalize(dir, FixedName); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOnlyFile(t, dir, FixedName, "png")
}

func TestNormalizeEmptyDirIsNoop(t *testing.T) {
	if err := Normalize(t.TempDir(), FixedName); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStoreRejectsInvalidExtensionBeforeWriting(t *testing.T) {
	area := newTestArea(t)
	mustWrite(t, filepath.Join(area.FrontDir(), FixedName), "previous")

	err := area.Store(File{Name: "front.jpg", Data: []byte("f")}, File{Name: "side.gif", Data: []byte("s")})
	if !errors.Is(err, ErrInvalidExtension) {
		t.Fatalf("expected ErrInvalidExtension, got %v", err)
	}
	assertOnlyFile(t, area.FrontDir(), FixedName, "previous")
	entries, _ := os.ReadDir(area.SideDir())
	if len(entries) != 0 {
		t.Fatalf("side dir should be untouched, got %d entries", len(entries))
	}
}

func TestSequentialStoresKeepOneFilePerSide(t *testing.T) {
	area := newTestArea(t)

	first := area.Store(File{Name: "a front.jpg", Data: []byte("front-1")}, File{Name: "a side.png", Data: []byte("side-1")})
	if first != nil {
		t.Fatalf("unexpected error: %v", first)
	}
	assertOnlyFile(t, area.FrontDir(), FixedName, "front-1")
	assertOnlyFile(t, area.SideDir(), FixedName, "side-1")

	second := area.Store(File{Name: "b.jpeg", Data: []byte("front-2")}, File{Name: "image.jpg", Data: []byte("side-2")})
	if second != nil {
		t.Fatalf("unexpected error: %v", second)
	}
	assertOnlyFile(t, area.FrontDir(), FixedName, "front-2")
	assertOnlyFile(t, area.SideDir(), FixedName, "side-2")
}

func TestAcquireSerializesAndHonorsContext(t *testing.T) {
	area := newTestArea(t)

	release, err := area.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := area.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while slot held, got %v", err)
	}

	release()
	release2, err := area.Acquire(context.Background())
	if err != nil {
		t.Fatalf("slot should be free after release: %v", err)
	}
	release2()
}

func newTestArea(t *testing.T) *Area {
	t.Helper()
	area, err := NewArea(filepath.Join(t.TempDir(), "uploads"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create area: %v", err)
	}
	return area
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func assertOnlyFile(t *testing.T, dir, name, content string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	if len(entries) != 1 || entries[0].Name() != name {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only %s in %s, got %v", name, dir, names)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	if string(data) != content {
		t.Fatalf("expected content %q, got %q", content, string(data))
	}
}
