package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/emotrack/internal/domain/model"
)

// DirSource replays encoded images from a directory in file-name order, one
// pass, at the configured rate. Useful for reproducing a recorded capture
// without a camera.
type DirSource struct {
	dir string
	fps int

	closeOnce sync.Once
	closed    chan struct{}
}

// DirOption applies a configuration option to the DirSource.
type DirOption func(*DirSource)

// WithDirFPS sets the replay rate in frames per second. Zero disables pacing.
func WithDirFPS(fps int) DirOption {
	return func(s *DirSource) {
		if fps >= 0 {
			s.fps = fps
		}
	}
}

// NewDirSource creates a replayer over the given directory. The directory
// must exist and be readable; contents are listed lazily on Frames.
func NewDirSource(dir string, opts ...DirOption) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open frame directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("frame source %q is not a directory", dir)
	}

	s := &DirSource{
		dir:    dir,
		fps:    defaultFPS,
		closed: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Frames lists image files and emits them in order.
func (s *DirSource) Frames(ctx context.Context) <-chan model.Frame {
	out := make(chan model.Frame)

	go func() {
		defer close(out)

		entries, err := os.ReadDir(s.dir)
		if err != nil {
			return
		}

		var names []string
		for _, e := range entries {
			if !e.IsDir() && isImageFile(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		var ticker *time.Ticker
		if s.fps > 0 {
			ticker = time.NewTicker(time.Second / time.Duration(s.fps))
			defer ticker.Stop()
		}

		for index, name := range names {
			if ticker != nil {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				case <-s.closed:
					return
				}
			}

			data, err := os.ReadFile(filepath.Join(s.dir, name))
			if err != nil {
				continue
			}

			frame := model.Frame{
				Data:       data,
				Index:      uint64(index),
				CapturedAt: time.Now(),
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			case <-s.closed:
				return
			}
		}
	}()

	return out
}

// Close stops the replay.
func (s *DirSource) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
