package metrics

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownWindow signals a window name that is not part of the configured set
var ErrUnknownWindow = errors.New("unknown time window")

// ErrInvalidWindow signals a window with a bad duration or bucket width
var ErrInvalidWindow = errors.New("invalid time window")

// TimeWindow is a look-back duration split in fixed width histogram buckets
type TimeWindow struct {
	name     string
	duration time.Duration
	bucket   time.Duration
}

var (
	// Window1h looks back 1 hour in 5 minute buckets
	Window1h = TimeWindow{name: "1h", duration: time.Hour, bucket: 5 * time.Minute}
	// Window24h looks back 24 hours in 1 hour buckets
	Window24h = TimeWindow{name: "24h", duration: 24 * time.Hour, bucket: time.Hour}
	// Window7d looks back 7 days in 1 day buckets
	Window7d = TimeWindow{name: "7d", duration: 7 * 24 * time.Hour, bucket: 24 * time.Hour}
)

// NewTimeWindow creates a window. The duration must be a positive multiple of the bucket width,
// both expressed in whole milliseconds
func NewTimeWindow(name string, duration time.Duration, bucket time.Duration) (TimeWindow, error) {
	if len(name) == 0 {
		return TimeWindow{}, fmt.Errorf("%w: empty name", ErrInvalidWindow)
	}
	if bucket < time.Millisecond || duration < bucket {
		return TimeWindow{}, fmt.Errorf("%w %s: duration %v, bucket %v", ErrInvalidWindow, name, duration, bucket)
	}
	if duration%bucket != 0 || bucket%time.Millisecond != 0 {
		return TimeWindow{}, fmt.Errorf("%w %s: duration %v is not a multiple of bucket %v", ErrInvalidWindow, name, duration, bucket)
	}

	return TimeWindow{
		name:     name,
		duration: duration,
		bucket:   bucket,
	}, nil
}

// Name returns the window name
func (tw TimeWindow) Name() string {
	return tw.name
}

// Duration returns the look-back duration
func (tw TimeWindow) Duration() time.Duration {
	return tw.duration
}

// Bucket returns the histogram bucket width
func (tw TimeWindow) Bucket() time.Duration {
	return tw.bucket
}

// DurationMs returns the look-back duration in milliseconds
func (tw TimeWindow) DurationMs() int64 {
	return tw.duration.Milliseconds()
}

// BucketMs returns the bucket width in milliseconds
func (tw TimeWindow) BucketMs() int64 {
	return tw.bucket.Milliseconds()
}

// NumBuckets returns how many buckets cover the window
func (tw TimeWindow) NumBuckets() int {
	return int(tw.duration / tw.bucket)
}

// WindowSet is the closed set of windows a consumer may query
type WindowSet struct {
	windows map[string]TimeWindow
}

// DefaultWindowSet returns the 1h, 24h and 7d windows
func DefaultWindowSet() *WindowSet {
	ws, _ := NewWindowSet(Window1h, Window24h, Window7d)
	return ws
}

// NewWindowSet creates a set from the provided windows. Names must be unique
func NewWindowSet(windows ...TimeWindow) (*WindowSet, error) {
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: empty window set", ErrInvalidWindow)
	}

	ws := &WindowSet{
		windows: make(map[string]TimeWindow, len(windows)),
	}
	for _, w := range windows {
		if len(w.name) == 0 || w.bucket <= 0 {
			return nil, fmt.Errorf("%w: uninitialized window", ErrInvalidWindow)
		}
		_, exists := ws.windows[w.name]
		if exists {
			return nil, fmt.Errorf("%w: duplicate window %s", ErrInvalidWindow, w.name)
		}
		ws.windows[w.name] = w
	}

	return ws, nil
}

// Get returns the window with the provided name
func (ws *WindowSet) Get(name string) (TimeWindow, error) {
	w, ok := ws.windows[name]
	if !ok {
		return TimeWindow{}, fmt.Errorf("%w: %s", ErrUnknownWindow, name)
	}

	return w, nil
}

// Names returns the window names, shortest window first
func (ws *WindowSet) Names() []string {
	windows := make([]TimeWindow, 0, len(ws.windows))
	for _, w := range ws.windows {
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].duration == windows[j].duration {
			return windows[i].name < windows[j].name
		}
		return windows[i].duration < windows[j].duration
	})

	names := make([]string, 0, len(windows))
	for _, w := range windows {
		names = append(names, w.name)
	}

	return names
}
