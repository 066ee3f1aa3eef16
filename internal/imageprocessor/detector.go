package imageprocessor

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const (
	cascadeScaleFactor  = 1.1
	cascadeMinNeighbors = 5
	cascadeMinFaceSize  = 40
)

// CascadeDetector finds faces with an OpenCV Haar cascade.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
	margin     int
	logger     *zap.Logger
	mu         sync.Mutex
}

// NewCascadeDetector loads the cascade definition at cascadePath. margin is the
// number of pixels kept around the detected face box.
func NewCascadeDetector(cascadePath string, margin int, logger *zap.Logger) (*CascadeDetector, error) {
	if _, err := os.Stat(cascadePath); err != nil {
		return nil, fmt.Errorf("cascade file not found: %w", err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade classifier from %s", cascadePath)
	}

	logger.Info("face detector initialized", zap.String("cascade", cascadePath))
	return &CascadeDetector{
		classifier: classifier,
		margin:     margin,
		logger:     logger.Named("face_detector"),
	}, nil
}

// DetectFace implements FaceDetector.
func (d *CascadeDetector) DetectFace(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("failed to decode image %s", path)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(equalized, cascadeScaleFactor, cascadeMinNeighbors, 0,
		image.Pt(cascadeMinFaceSize, cascadeMinFaceSize), image.Pt(0, 0))
	d.mu.Unlock()

	face, ok := LargestFace(rects)
	if !ok {
		return nil, ErrNoFaceDetected
	}
	d.logger.Debug("faces detected", zap.String("path", path), zap.Int("count", len(rects)), zap.Stringer("face", face))

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	region := img.Region(ExpandRect(face, d.margin, bounds))
	defer region.Close()
	// Region shares the parent's buffer and is not continuous.
	owned := region.Clone()
	defer owned.Close()

	crop, err := owned.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert face crop: %w", err)
	}
	return crop, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}
