// Package display renders the hazard percentage on a pair of LED strips.
//
// The Controller is a state machine: Accept plans the frames for a message
// and Step renders them one at a time, returning the pause before the
// next. It never sleeps; the Task supplies the timing.
package display

import (
	"log/slog"
	"time"

	"dusterilizer-go/services/hal"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/types"
	"dusterilizer-go/x/colorx"
	"dusterilizer-go/x/mathx"
	"dusterilizer-go/x/ramp"
)

type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeConfig  Mode = "config"
	ModeBarFill Mode = "bar_fill"
	ModePulse   Mode = "pulse"
)

// PulseLow is the dimmest point of the pulse animation.
const PulseLow = 0.2

type Config struct {
	NumLEDs    int
	UpdateRate time.Duration
	PulseSteps int

	Logger  *slog.Logger
	Metrics *metrics.Collectors
}

// frame lights count pixels counted from the outer edge inward, or the
// whole strip when full is set.
type frame struct {
	count int
	color colorx.RGB
	full  bool
	delay time.Duration
}

type Controller struct {
	left, right hal.Strip
	n           int
	rate        time.Duration
	pulse       []float64
	log         *slog.Logger
	metrics     *metrics.Collectors

	last        types.DisplayMsg
	lastPercent float64
	mode        Mode
	pending     []frame
}

// NewController drives left and right, which must both hold at least
// cfg.NumLEDs pixels.
func NewController(left, right hal.Strip, cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		left:    left,
		right:   right,
		n:       cfg.NumLEDs,
		rate:    cfg.UpdateRate,
		pulse:   ramp.Triangle(cfg.PulseSteps, PulseLow),
		log:     log,
		metrics: cfg.Metrics,
		mode:    ModeIdle,
	}
}

// Mode is Idle unless frames are pending.
func (c *Controller) Mode() Mode { return c.mode }

// LastPercent is the last percent_smooth value accepted.
func (c *Controller) LastPercent() float64 { return c.lastPercent }

// Accept plans the animation for m. A message equal to the previous one
// is dropped and Accept reports false.
func (c *Controller) Accept(m types.DisplayMsg) bool {
	if c.last != nil && m == c.last {
		return false
	}
	c.last = m
	c.pending = c.pending[:0]

	switch msg := m.(type) {
	case types.Percent:
		c.mode = ModeConfig
		c.pending = append(c.pending, frame{
			count: mathx.FloorScale(msg.Value, c.n),
			color: colorx.Blue,
		})
	case types.PercentSmooth:
		if msg.Value >= 1.0 {
			c.planPulse()
		} else {
			c.planBar(msg.Value)
		}
		c.lastPercent = msg.Value
	default:
		c.log.Warn("unknown display message", "topic", m.Topic())
		return false
	}
	c.metrics.Rendered(string(c.mode))
	if len(c.pending) == 0 {
		c.mode = ModeIdle
	}
	return true
}

func (c *Controller) planPulse() {
	c.mode = ModePulse
	d := c.rate / time.Duration(len(c.pulse))
	for _, b := range c.pulse {
		c.pending = append(c.pending, frame{
			color: colorx.WithBrightness(colorx.Red, b),
			full:  true,
			delay: d,
		})
	}
}

func (c *Controller) planBar(v float64) {
	c.mode = ModeBarFill
	prev := mathx.CeilScale(c.lastPercent, c.n)
	target := mathx.CeilScale(v, c.n)
	counts := ramp.Counts(prev, target)
	if len(counts) == 0 {
		return
	}
	d := c.rate / time.Duration(len(counts))
	for _, k := range counts {
		c.pending = append(c.pending, frame{
			count: k,
			color: colorx.Band(float64(k) / float64(c.n)),
			delay: d,
		})
	}
}

// Step renders the next pending frame and returns the pause before the
// following one. ok is false when nothing was pending.
func (c *Controller) Step() (delay time.Duration, ok bool) {
	if len(c.pending) == 0 {
		c.mode = ModeIdle
		return 0, false
	}
	f := c.pending[0]
	c.pending = c.pending[1:]
	c.render(f)
	if len(c.pending) == 0 {
		c.mode = ModeIdle
	}
	return f.delay, true
}

// Off blanks both strips.
func (c *Controller) Off() {
	c.pending = c.pending[:0]
	c.mode = ModeIdle
	c.render(frame{color: colorx.Off, full: true})
}

func (c *Controller) render(f frame) {
	for _, s := range [...]hal.Strip{c.left, c.right} {
		for i := 0; i < c.n; i++ {
			px := colorx.Off
			if f.full || i < f.count {
				px = f.color
			}
			s.SetPixel(c.n-1-i, px)
		}
	}
	for _, s := range [...]hal.Strip{c.left, c.right} {
		if err := s.Flush(); err != nil {
			c.log.Warn("strip flush failed", "error", err)
		}
	}
}
