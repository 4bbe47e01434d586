// Package pace extracts running speed samples from a FIT activity file.
package pace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tormoder/fit"
)

// ErrNoActivity is returned by a Source when no activity file exists.
var ErrNoActivity = errors.New("no activity file")

// msToKmh converts metres per second to kilometres per hour.
const msToKmh = 3.6

// Source opens the raw bytes of an activity file.
type Source interface {
	// Open returns the file contents. It returns an error wrapping
	// ErrNoActivity when the file does not exist.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Name is a short description used in error messages, e.g. "run.fit".
	Name() string
}

// Speeds decodes a FIT activity and returns its enhanced speed samples in
// km/h, in recording order. Records without a speed value are skipped.
func Speeds(r io.Reader) ([]float64, error) {
	file, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode fit: %w", err)
	}
	activity, err := file.Activity()
	if err != nil {
		return nil, fmt.Errorf("read activity: %w", err)
	}
	return speedsFromRecords(activity.Records), nil
}

// Load opens src and extracts its speeds.
func Load(ctx context.Context, src Source) ([]float64, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Speeds(rc)
}

func speedsFromRecords(records []*fit.RecordMsg) []float64 {
	speeds := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		v := rec.GetEnhancedSpeedScaled()
		if math.IsNaN(v) {
			continue
		}
		speeds = append(speeds, v*msToKmh)
	}
	return speeds
}
