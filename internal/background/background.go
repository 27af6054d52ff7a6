// Package background produces and persists the clean reference image
// that the compositor substitutes for cloak pixels.
package background

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/capture"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"gocv.io/x/gocv"
)

// ErrNoFrames reports an acquisition that collected zero usable frames.
// Nothing is written; the caller may retry the whole acquisition.
var ErrNoFrames = errors.New("no usable frames captured")

// Acquire reads sampleCount frames from the source and reduces them to
// a single reference image by taking, for every pixel and channel, the
// median value across the captured frames. The median rejects transient
// outliers (a brief shadow, something moving through the scene) that
// would skew a mean. Failed reads are skipped and not retried, so fewer
// than sampleCount frames may contribute. The caller owns the returned
// Mat.
func Acquire(src capture.Source, sampleCount int) (gocv.Mat, error) {
	if sampleCount <= 0 {
		return gocv.Mat{}, fmt.Errorf("sample count must be positive, got %d", sampleCount)
	}

	log := logger.WithComponent("background")

	var (
		samples [][]byte
		rows    int
		cols    int
		matType gocv.MatType
	)

	for i := 0; i < sampleCount; i++ {
		frame, err := src.Read()
		if err != nil {
			log.Debug().Int("attempt", i).Err(err).Msg("Skipping failed read")
			continue
		}
		if len(samples) == 0 {
			rows, cols, matType = frame.Rows(), frame.Cols(), frame.Type()
		}
		samples = append(samples, frame.ToBytes())
		frame.Close()
	}

	if len(samples) == 0 {
		return gocv.Mat{}, ErrNoFrames
	}

	log.Info().
		Int("usable", len(samples)).
		Int("requested", sampleCount).
		Msg("Computing per-pixel median")

	out, err := gocv.NewMatFromBytes(rows, cols, matType, medianBytes(samples))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to assemble background image: %w", err)
	}
	return out, nil
}

// medianBytes reduces equal-length byte slices to their per-index
// median. For an even sample count the two middle values are averaged,
// truncating like the original float-to-uint8 conversion did.
func medianBytes(samples [][]byte) []byte {
	n := len(samples)
	out := make([]byte, len(samples[0]))
	column := make([]byte, n)

	for i := range out {
		for j, s := range samples {
			column[j] = s[i]
		}
		sort.Slice(column, func(a, b int) bool { return column[a] < column[b] })
		if n%2 == 1 {
			out[i] = column[n/2]
		} else {
			out[i] = byte((int(column[n/2-1]) + int(column[n/2])) / 2)
		}
	}
	return out
}

// Save writes the background image to path. The format follows the file
// extension; the default configuration uses PNG so that every channel
// value survives exactly — lossy artifacts would show up later as
// visible seams along the replaced region.
func Save(path string, img gocv.Mat) error {
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("failed to write background image to %s", path)
	}
	return nil
}

// Load reads a previously acquired background image. A missing or
// undecodable file is fatal for a compositing session: the error names
// the path so the user knows which acquisition to rerun.
func Load(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("background image missing or unreadable: %s (run 'cloak background' first)", path)
	}
	return img, nil
}
