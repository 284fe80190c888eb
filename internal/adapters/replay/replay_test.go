package replay_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/handbeat/internal/adapters/replay"
	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/internal/domain/tracking"
)

type ingested struct {
	detections []tracking.Detection
	at         time.Time
}

type recorder struct {
	cycles []ingested
}

func (r *recorder) Ingest(d []tracking.Detection, at time.Time) {
	r.cycles = append(r.cycles, ingested{detections: d, at: at})
}

func take() []replay.Frame {
	return []replay.Frame{
		{Offset: 0, Detections: []tracking.Detection{{Hand: model.HandLeft, Confidence: 0.9, X: 0.25, Y: 0.5}}},
		{Offset: 33 * time.Millisecond},
		{Offset: 66 * time.Millisecond, Detections: []tracking.Detection{
			{Hand: model.HandLeft, Confidence: 0.8, X: 0.3, Y: 0.45},
			{Hand: model.HandRight, Confidence: 0.95, X: 0.7, Y: 0.4},
		}},
	}
}

func encode(t *testing.T, frames []replay.Frame) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := replay.NewWriter(&buf)
	for _, f := range frames {
		require.NoError(t, w.Write(f))
	}
	require.Equal(t, len(frames), w.Frames())
	return &buf
}

func TestReader_ReadsWrittenFrames(t *testing.T) {
	frames := take()
	r := replay.NewReader(encode(t, frames))

	var got []replay.Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, f)
	}

	// an empty cycle decodes with nil detections
	if diff := cmp.Diff(frames, got); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestReader_EmptyStream(t *testing.T) {
	_, err := replay.NewReader(&bytes.Buffer{}).Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_Corrupt(t *testing.T) {
	_, err := replay.NewReader(bytes.NewReader([]byte{0xc1})).Next()
	assert.ErrorIs(t, err, replay.ErrCorrupt)
}

func TestPlay_FeedsFramesAtOffsets(t *testing.T) {
	frames := take()
	start := time.Now().Add(-time.Second)
	rec := &recorder{}

	err := replay.Play(context.Background(), replay.NewReader(encode(t, frames)), rec, start)
	require.NoError(t, err)
	require.Len(t, rec.cycles, len(frames))

	for i, f := range frames {
		assert.Equal(t, start.Add(f.Offset), rec.cycles[i].at)
		assert.Len(t, rec.cycles[i].detections, len(f.Detections))
	}
}

func TestPlay_WaitsForFutureFrames(t *testing.T) {
	frames := []replay.Frame{{Offset: 20 * time.Millisecond}}
	rec := &recorder{}
	begin := time.Now()

	require.NoError(t, replay.Play(context.Background(), replay.NewReader(encode(t, frames)), rec, begin))
	assert.GreaterOrEqual(t, time.Since(begin), 20*time.Millisecond)
	assert.Len(t, rec.cycles, 1)
}

func TestPlay_StopsOnCancel(t *testing.T) {
	frames := []replay.Frame{{Offset: time.Hour}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	rec := &recorder{}
	err := replay.Play(ctx, replay.NewReader(encode(t, frames)), rec, time.Now())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, rec.cycles)
}

func TestPlay_DrivesConditioner(t *testing.T) {
	c := tracking.NewConditioner()
	require.NoError(t, replay.Play(context.Background(), replay.NewReader(encode(t, take())), c, time.Now().Add(-time.Second)))

	snap := c.Snapshot()
	assert.True(t, snap.Get(model.HandLeft).Tracked)
	assert.True(t, snap.Get(model.HandRight).Tracked)
}
