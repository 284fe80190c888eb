// Package replay records and plays back hand-detector output as a msgpack
// stream of timed frames.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/okian/handbeat/internal/domain/tracking"
)

// ErrCorrupt is returned when the stream holds something other than frames.
var ErrCorrupt = errors.New("corrupt replay stream")

// Frame is one detector cycle, stamped with its offset from the start of the take.
type Frame struct {
	Offset     time.Duration        `msgpack:"t"`
	Detections []tracking.Detection `msgpack:"d"`
}

// Writer appends frames to a stream.
type Writer struct {
	enc *msgpack.Encoder
	n   int
}

// NewWriter creates a writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: msgpack.NewEncoder(w)}
}

// Write encodes one frame.
func (w *Writer) Write(f Frame) error {
	if err := w.enc.Encode(&f); err != nil {
		return fmt.Errorf("write frame %d: %w", w.n, err)
	}
	w.n++
	return nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int { return w.n }

// Reader decodes frames from a stream.
type Reader struct {
	dec *msgpack.Decoder
	n   int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: msgpack.NewDecoder(r)}
}

// Next returns the next frame, or io.EOF at a clean end of stream.
func (r *Reader) Next() (Frame, error) {
	var f Frame
	if err := r.dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("%w: frame %d: %v", ErrCorrupt, r.n, err)
	}
	r.n++
	return f, nil
}

// Ingester consumes detector cycles. tracking.Conditioner satisfies it.
type Ingester interface {
	Ingest(detections []tracking.Detection, at time.Time)
}

// Play feeds every frame from r into dst at start plus the frame's offset,
// sleeping until each frame is due. Frames already due are fed at once. It
// returns nil when the stream ends and ctx.Err() if canceled first.
func Play(ctx context.Context, r *Reader, dst Ingester, start time.Time) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		at := start.Add(f.Offset)
		if wait := time.Until(at); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		dst.Ingest(f.Detections, at)
	}
}
