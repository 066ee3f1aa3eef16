package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// FixedName is the name every stored upload is normalized to so the feature
// extractor can find it without knowing what the client called it.
const FixedName = "image.jpg"

// File is an uploaded image held in memory.
type File struct {
	Name string
	Data []byte
}

// Area is the single-slot upload area: one front image and one side image,
// each in its own directory under a common base.
//
// Callers must hold the slot (Acquire) from Store until they are done
// reading the images; concurrent requests are queued on it.
type Area struct {
	baseDir string
	logger  *zap.Logger
	slot    *semaphore.Weighted
}

// NewArea creates the front and side directories under baseDir.
func NewArea(baseDir string, logger *zap.Logger) (*Area, error) {
	a := &Area{
		baseDir: baseDir,
		logger:  logger.Named("uploads"),
		slot:    semaphore.NewWeighted(1),
	}
	for _, dir := range []string{a.FrontDir(), a.SideDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
		}
	}
	return a, nil
}

// BaseDir is the directory holding the front and side directories.
func (a *Area) BaseDir() string { return a.baseDir }

// FrontDir holds the front view.
func (a *Area) FrontDir() string { return filepath.Join(a.baseDir, "front") }

// SideDir holds the side view.
func (a *Area) SideDir() string { return filepath.Join(a.baseDir, "side") }

// Acquire waits for the slot. The returned release func must be called exactly once.
func (a *Area) Acquire(ctx context.Context) (func(), error) {
	if err := a.slot.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { a.slot.Release(1) }, nil
}

// Store replaces the slot contents with front and side. Both names are
// validated before anything on disk is touched. Rename failures during
// normalization are logged and do not fail the call.
func (a *Area) Store(front, side File) error {
	if err := ValidateExtension(front.Name); err != nil {
		return fmt.Errorf("front_view: %w", err)
	}
	if err := ValidateExtension(side.Name); err != nil {
		return fmt.Errorf("side_view: %w", err)
	}

	for _, dir := range []string{a.FrontDir(), a.SideDir()} {
		if err := Reset(dir, a.logger); err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create upload dir %s: %w", dir, err)
		}
	}

	if err := a.save(a.FrontDir(), front); err != nil {
		return err
	}
	if err := a.save(a.SideDir(), side); err != nil {
		return err
	}

	for _, dir := range []string{a.FrontDir(), a.SideDir()} {
		if err := Normalize(dir, FixedName); err != nil {
			a.logger.Error("failed to normalize upload", zap.String("dir", dir), zap.Error(err))
		}
	}
	return nil
}

func (a *Area) save(dir string, f File) error {
	path := filepath.Join(dir, SanitizeFilename(f.Name))
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	a.logger.Debug("saved upload", zap.String("path", path), zap.Int("bytes", len(f.Data)))
	return nil
}

// Normalize renames the first entry of dir to fixedName, replacing any
// existing file of that name.
func Normalize(dir, fixedName string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return nil
	}

	oldPath := filepath.Join(dir, entries[0].Name())
	newPath := filepath.Join(dir, fixedName)
	if oldPath == newPath {
		return nil
	}
	if _, err := os.Stat(newPath); err == nil {
		if err := os.Remove(newPath); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", newPath, err)
		}
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to rename %s: %w", oldPath, err)
	}
	return nil
}
