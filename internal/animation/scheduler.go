// Package animation steps several equally indexed data channels through a
// track in lock-step. It computes what each frame shows and nothing else.
package animation

import (
	"errors"
	"fmt"
)

var (
	ErrBadStride     = errors.New("stride must be positive")
	ErrShortChannel  = errors.New("channel shorter than track")
	ErrChannelShape  = errors.New("channel series lengths differ")
	ErrNoTrackPoints = errors.New("track has no points")
)

// Channel is one animated series: x/y samples and optional per-sample label
// text, all indexed like the track.
type Channel struct {
	Name   string
	X, Y   []float64
	Labels []string
}

func (c Channel) validate(n int) error {
	if len(c.X) != len(c.Y) {
		return fmt.Errorf("%w: %q has %d x and %d y", ErrChannelShape, c.Name, len(c.X), len(c.Y))
	}
	if c.Labels != nil && len(c.Labels) != len(c.X) {
		return fmt.Errorf("%w: %q has %d labels for %d samples", ErrChannelShape, c.Name, len(c.Labels), len(c.X))
	}
	if len(c.X) < n {
		return fmt.Errorf("%w: %q has %d samples, need %d", ErrShortChannel, c.Name, len(c.X), n)
	}
	return nil
}

// ChannelFrame is what one channel shows at a tick. The trail slices alias
// the channel's arrays.
type ChannelFrame struct {
	Name           string
	TrailX, TrailY []float64
	X, Y           float64
	Label          string
	HasLabel       bool
}

// Frame is the state of every channel at one tick.
type Frame struct {
	Cursor   int
	Index    int
	Channels []ChannelFrame
}

// Scheduler owns the frame cursor for one playback session.
type Scheduler struct {
	n        int
	stride   int
	frames   int
	channels []Channel
	cursor   int
}

// NewScheduler checks that every channel covers the n track points.
func NewScheduler(n, stride int, channels []Channel) (*Scheduler, error) {
	if n <= 0 {
		return nil, ErrNoTrackPoints
	}
	if stride <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadStride, stride)
	}
	for _, c := range channels {
		if err := c.validate(n); err != nil {
			return nil, err
		}
	}
	return &Scheduler{
		n:        n,
		stride:   stride,
		frames:   n / stride,
		channels: channels,
	}, nil
}

// FrameCount is floor(n/stride). It is zero when the stride reaches past the
// track, in which case a single frame is still played.
func (s *Scheduler) FrameCount() int { return s.frames }

// Ticks is the number of frames a full playback emits.
func (s *Scheduler) Ticks() int { return max(s.frames, 1) }

func (s *Scheduler) Stride() int { return s.stride }

func (s *Scheduler) Cursor() int { return s.cursor }

func (s *Scheduler) Channels() []Channel { return s.channels }

// Index is the track index shown at cursor.
func (s *Scheduler) Index(cursor int) int { return cursor * s.stride }

// At computes the frame for cursor without touching the scheduler state, so
// it is safe to call from several goroutines.
func (s *Scheduler) At(cursor int) (Frame, error) {
	if cursor < 0 || cursor >= s.Ticks() {
		return Frame{}, fmt.Errorf("cursor %d outside [0, %d)", cursor, s.Ticks())
	}
	i := s.Index(cursor)
	f := Frame{Cursor: cursor, Index: i, Channels: make([]ChannelFrame, len(s.channels))}
	for k, c := range s.channels {
		cf := ChannelFrame{
			Name:   c.Name,
			TrailX: c.X[:i:i],
			TrailY: c.Y[:i:i],
			X:      c.X[i],
			Y:      c.Y[i],
		}
		if c.Labels != nil {
			cf.Label = c.Labels[i]
			cf.HasLabel = true
		}
		f.Channels[k] = cf
	}
	return f, nil
}

// Next returns the frame at the cursor and advances it. ok is false once
// playback is finished.
func (s *Scheduler) Next() (Frame, bool) {
	if s.cursor >= s.Ticks() {
		return Frame{}, false
	}
	f, err := s.At(s.cursor)
	if err != nil {
		return Frame{}, false
	}
	s.cursor++
	return f, true
}

func (s *Scheduler) Reset() { s.cursor = 0 }

// StrideFor picks the stride that plays n points in roughly seconds of
// output at fps frames per second.
func StrideFor(n int, seconds, fps float64) int {
	frames := int(seconds * fps)
	if frames <= 0 {
		return 1
	}
	return max(n/frames, 1)
}
