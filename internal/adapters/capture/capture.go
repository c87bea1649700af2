// Package capture provides frame sources for tracking sessions. A source
// produces already-encoded image bytes; actual camera access is left to
// whatever can implement the one-method contract (the daemon ships a
// synthetic generator and a directory replayer).
package capture

import (
	"context"

	"github.com/okian/emotrack/internal/domain/model"
)

// Source produces a stream of frames. The channel closes when the source is
// exhausted, the context is canceled, or Close is called; dropped or unread
// frames are gone permanently, there is no replay.
type Source interface {
	Frames(ctx context.Context) <-chan model.Frame

	// Close releases the source. Safe to call more than once.
	Close() error
}
