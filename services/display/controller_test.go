package display

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"dusterilizer-go/bus"
	"dusterilizer-go/services/hal"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/types"
	"dusterilizer-go/x/colorx"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const numLEDs = 14

func newController(t *testing.T) (*Controller, *hal.MemStrip, *hal.MemStrip) {
	t.Helper()
	l, r := hal.NewRecordingStrip(numLEDs), hal.NewRecordingStrip(numLEDs)
	c := NewController(l, r, Config{NumLEDs: numLEDs, UpdateRate: time.Second, PulseSteps: 10})
	return c, l, r
}

// drain plays every pending frame and returns the delays.
func drain(c *Controller) []time.Duration {
	var ds []time.Duration
	for {
		d, ok := c.Step()
		if !ok {
			return ds
		}
		ds = append(ds, d)
	}
}

func lit(px []colorx.RGB) int {
	n := 0
	for _, p := range px {
		if p != colorx.Off {
			n++
		}
	}
	return n
}

func TestBarFill_HalfLightsOuterSevenYellow(t *testing.T) {
	c, l, r := newController(t)

	require.True(t, c.Accept(types.PercentSmooth{Value: 0.5}))
	assert.Equal(t, ModeBarFill, c.Mode())
	ds := drain(c)
	assert.Equal(t, ModeIdle, c.Mode())

	require.Len(t, ds, 7)
	for _, d := range ds {
		assert.Equal(t, time.Second/7, d)
	}

	for _, s := range []*hal.MemStrip{l, r} {
		frames := s.Frames()
		require.Len(t, frames, 7)
		for i, f := range frames {
			assert.Equal(t, i+1, lit(f), "frame %d", i)
		}
		last := s.Last()
		for i := 0; i < 7; i++ {
			assert.Equal(t, colorx.Off, last[i], "pixel %d", i)
		}
		for i := 7; i < numLEDs; i++ {
			assert.Equal(t, colorx.Yellow, last[i], "pixel %d", i)
		}
	}
	assert.Equal(t, 0.5, c.LastPercent())
}

func TestBarFill_Descends(t *testing.T) {
	c, l, _ := newController(t)
	c.Accept(types.PercentSmooth{Value: 0.5})
	drain(c)
	before := len(l.Frames())

	c.Accept(types.PercentSmooth{Value: 0.2}) // ceil(2.8) = 3
	drain(c)

	frames := l.Frames()[before:]
	require.Len(t, frames, 4)
	for i, f := range frames {
		assert.Equal(t, 6-i, lit(f))
	}
	assert.Equal(t, colorx.Green, l.Last()[numLEDs-1])
}

func TestBarFill_ClampsOverRange(t *testing.T) {
	c, l, _ := newController(t)
	c.Accept(types.PercentSmooth{Value: 0.95}) // ceil(13.3)
	drain(c)
	assert.Equal(t, numLEDs, lit(l.Last()))
	assert.Equal(t, colorx.Red, l.Last()[0])

	// Same count after clamping: nothing to draw.
	n := len(l.Frames())
	require.True(t, c.Accept(types.PercentSmooth{Value: 0.99}))
	assert.Empty(t, drain(c))
	assert.Len(t, l.Frames(), n)
}

func TestBarFill_NaNDrawsNothing(t *testing.T) {
	c, l, _ := newController(t)
	c.Accept(types.PercentSmooth{Value: 0.5})
	drain(c)
	n := len(l.Frames())

	require.NotPanics(t, func() {
		require.True(t, c.Accept(types.PercentSmooth{Value: math.NaN()}))
		drain(c)
	})
	// NaN scales to an empty bar.
	assert.Len(t, l.Frames(), n+7)
	assert.Zero(t, lit(l.Last()))

	require.NotPanics(t, func() {
		c.Accept(types.PercentSmooth{Value: 0.2})
		drain(c)
	})
	assert.Equal(t, 3, lit(l.Last()))
}

func TestPulse_DimsThenBrightens(t *testing.T) {
	c, l, _ := newController(t)

	require.True(t, c.Accept(types.PercentSmooth{Value: 1.2}))
	assert.Equal(t, ModePulse, c.Mode())
	ds := drain(c)
	require.Len(t, ds, 10)
	assert.Equal(t, time.Second/10, ds[0])

	frames := l.Frames()
	require.Len(t, frames, 10)
	reds := make([]uint8, len(frames))
	for i, f := range frames {
		assert.Equal(t, numLEDs, lit(f), "frame %d lights the whole strip", i)
		assert.Zero(t, f[0].G)
		assert.Zero(t, f[0].B)
		reds[i] = f[0].R
	}
	assert.Equal(t, uint8(255), reds[0])
	for i := 1; i <= 5; i++ {
		assert.Less(t, reds[i], reds[i-1], "falling at %d", i)
	}
	for i := 6; i < 10; i++ {
		assert.Greater(t, reds[i], reds[i-1], "rising at %d", i)
	}
	assert.Equal(t, uint8(51), reds[5])
	assert.Equal(t, 1.2, c.LastPercent())
}

func TestAccept_DropsRepeats(t *testing.T) {
	m := metrics.New()
	l, r := hal.NewRecordingStrip(numLEDs), hal.NewRecordingStrip(numLEDs)
	c := NewController(l, r, Config{NumLEDs: numLEDs, UpdateRate: time.Second, PulseSteps: 10, Metrics: m})

	require.True(t, c.Accept(types.PercentSmooth{Value: 0.5}))
	drain(c)
	n := len(l.Frames())

	assert.False(t, c.Accept(types.PercentSmooth{Value: 0.5}))
	assert.Empty(t, drain(c))
	assert.Len(t, l.Frames(), n)

	// Same value under the other topic is a different message.
	assert.True(t, c.Accept(types.Percent{Value: 0.5}))
	want := `
# HELP dusterilizer_display_renders_total Display messages rendered, by mode.
# TYPE dusterilizer_display_renders_total counter
dusterilizer_display_renders_total{mode="bar_fill"} 1
dusterilizer_display_renders_total{mode="config"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "dusterilizer_display_renders_total"))
}

func TestPercent_RendersConfigBlue(t *testing.T) {
	c, l, r := newController(t)

	require.True(t, c.Accept(types.Percent{Value: 5.0 / 8}))
	assert.Equal(t, ModeConfig, c.Mode())
	ds := drain(c)
	assert.Equal(t, []time.Duration{0}, ds)

	for _, s := range []*hal.MemStrip{l, r} {
		require.Len(t, s.Frames(), 1)
		last := s.Last()
		assert.Equal(t, 8, lit(last)) // floor(0.625 * 14)
		assert.Equal(t, colorx.Blue, last[numLEDs-1])
		assert.Equal(t, colorx.Off, last[5])
	}
	// Config renders leave the bar baseline alone.
	assert.Zero(t, c.LastPercent())
}

func TestOff_BlanksBothStrips(t *testing.T) {
	c, l, r := newController(t)
	c.Accept(types.PercentSmooth{Value: 0.5})
	c.Step()
	c.Off()

	assert.Equal(t, ModeIdle, c.Mode())
	assert.Zero(t, lit(l.Last()))
	assert.Zero(t, lit(r.Last()))
	_, ok := c.Step()
	assert.False(t, ok)
}

func TestTask_PlaysQueueAndBlanksOnClose(t *testing.T) {
	c, l, _ := newController(t)
	q := bus.NewQueue[types.DisplayMsg]("display")
	q.Put(types.Percent{Value: 0.25})
	q.Put(types.PercentSmooth{Value: 0.5})
	q.Put(types.PercentSmooth{Value: 0.5})
	q.Close()

	var waits []time.Duration
	wait := func(_ context.Context, d time.Duration) bool {
		waits = append(waits, d)
		return true
	}
	require.NoError(t, NewTask(c, q, wait).Run(context.Background()))

	// Config render takes no wait; the repeat is dropped.
	assert.Len(t, waits, 7)
	frames := l.Frames()
	require.Len(t, frames, 1+7+1)
	assert.Zero(t, lit(l.Last()))
}

func TestTask_StopsWhenWaitCancelled(t *testing.T) {
	c, l, _ := newController(t)
	q := bus.NewQueue[types.DisplayMsg]("display")
	q.Put(types.PercentSmooth{Value: 1.5})

	calls := 0
	wait := func(_ context.Context, _ time.Duration) bool {
		calls++
		return calls < 3
	}
	require.NoError(t, NewTask(c, q, wait).Run(context.Background()))
	assert.Equal(t, 3, calls)
	assert.Len(t, l.Frames(), 3+1)
	assert.Zero(t, lit(l.Last()))
}
