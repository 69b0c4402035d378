package hal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"dusterilizer-go/x/colorx"
)

// ---- in-memory GPIO ----

// MemGPIO is a GPIO chip kept in memory. Inputs read the levels set with
// SetInput; outputs record every level written.
type MemGPIO struct {
	mu     sync.Mutex
	inputs map[int]bool
	levels map[int]bool
	writes map[int][]bool
}

func NewMemGPIO() *MemGPIO {
	return &MemGPIO{inputs: map[int]bool{}, levels: map[int]bool{}, writes: map[int][]bool{}}
}

// SetInput fixes the level an input on offset reads.
func (m *MemGPIO) SetInput(offset int, level bool) {
	m.mu.Lock()
	m.inputs[offset] = level
	m.mu.Unlock()
}

// Level returns the last level driven on offset.
func (m *MemGPIO) Level(offset int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[offset]
}

// Writes returns every level driven on offset, in order.
func (m *MemGPIO) Writes(offset int) []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.writes[offset]...)
}

func (m *MemGPIO) Output(offset int, initial bool) (OutputPin, error) {
	p := &memPin{m: m, offset: offset}
	_ = p.Set(initial)
	return p, nil
}

func (m *MemGPIO) Input(offset int, _ Pull) (InputPin, error) {
	return &memPin{m: m, offset: offset}, nil
}

func (m *MemGPIO) Close() error { return nil }

type memPin struct {
	m      *MemGPIO
	offset int
}

func (p *memPin) Set(level bool) error {
	p.m.mu.Lock()
	p.m.levels[p.offset] = level
	p.m.writes[p.offset] = append(p.m.writes[p.offset], level)
	p.m.mu.Unlock()
	return nil
}

func (p *memPin) Get() (bool, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	return p.m.inputs[p.offset], nil
}

func (p *memPin) Close() error { return nil }

// ---- in-memory strip ----

// MemStrip stages pixels and keeps the last flushed frame. A recording
// strip also keeps every earlier frame.
type MemStrip struct {
	mu     sync.Mutex
	staged []colorx.RGB
	last   []colorx.RGB
	record bool
	frames [][]colorx.RGB
}

func NewMemStrip(n int) *MemStrip { return &MemStrip{staged: make([]colorx.RGB, n)} }

// NewRecordingStrip keeps every flushed frame. History grows without
// bound; use it in tests.
func NewRecordingStrip(n int) *MemStrip {
	s := NewMemStrip(n)
	s.record = true
	return s
}

func (s *MemStrip) Len() int { return len(s.staged) }

func (s *MemStrip) SetPixel(i int, c colorx.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.staged) {
		s.staged[i] = c
	}
}

func (s *MemStrip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.record {
		s.last = make([]colorx.RGB, len(s.staged))
	}
	copy(s.last, s.staged)
	if s.record {
		s.frames = append(s.frames, s.last)
	}
	return nil
}

// Frames returns every flushed frame of a recording strip. Other strips
// return at most the last frame.
func (s *MemStrip) Frames() [][]colorx.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.record {
		if s.last == nil {
			return nil
		}
		return [][]colorx.RGB{append([]colorx.RGB(nil), s.last...)}
	}
	out := make([][]colorx.RGB, len(s.frames))
	copy(out, s.frames)
	return out
}

// Last returns a copy of the most recently flushed frame, or nil.
func (s *MemStrip) Last() []colorx.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return append([]colorx.RGB(nil), s.last...)
}

// ---- log strip ----

// LogStrip is a MemStrip that logs each flushed frame at debug level.
type LogStrip struct {
	*MemStrip
	name string
	log  *slog.Logger
}

func NewLogStrip(name string, n int, log *slog.Logger) *LogStrip {
	if log == nil {
		log = slog.Default()
	}
	return &LogStrip{MemStrip: NewMemStrip(n), name: name, log: log}
}

func (s *LogStrip) Flush() error {
	if err := s.MemStrip.Flush(); err != nil {
		return err
	}
	if s.log.Enabled(context.Background(), slog.LevelDebug) {
		s.log.Debug("strip frame", "strip", s.name, "pixels", FormatFrame(s.Last()))
	}
	return nil
}

// FormatFrame renders a frame as space-separated hex colours.
func FormatFrame(px []colorx.RGB) string {
	var sb strings.Builder
	for i, c := range px {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x%02x%02x", c.R, c.G, c.B)
	}
	return sb.String()
}
