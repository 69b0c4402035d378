// Package sensors runs one polling loop per sensor. Each loop reads its
// driver, pushes the outcome onto the shared main queue and waits for the
// next cycle. Faults never end a loop; they are reported as info messages.
package sensors

import (
	"context"
	"log/slog"
	"time"

	"dusterilizer-go/bus"
	"dusterilizer-go/drivers/sgp30"
	"dusterilizer-go/drivers/sht31"
	"dusterilizer-go/drivers/sps30"
	"dusterilizer-go/errcode"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/types"
	"dusterilizer-go/x/timex"
)

// Driver is the polling surface shared by the sensor drivers.
type Driver interface {
	Start() error
	ReadMeasuredValues() error
	Status() types.Status
	Stale() []string
}

// Options are common to every sensor task.
type Options struct {
	Every   time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Collectors
	Wait    timex.Wait
}

// Task polls one sensor.
type Task struct {
	id         types.SensorID
	dev        Driver
	out        *bus.Queue[types.MainMsg]
	stopOnInit bool
	data       func() []types.MainMsg
	observe    func(m *metrics.Collectors)
	every      time.Duration
	log        *slog.Logger
	metrics    *metrics.Collectors
	wait       timex.Wait
}

func newTask(id types.SensorID, dev Driver, out *bus.Queue[types.MainMsg], o Options) *Task {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Task{
		id:      id,
		dev:     dev,
		out:     out,
		every:   o.Every,
		log:     log.With("task", string(id)),
		metrics: o.Metrics,
		wait:    timex.OrSleep(o.Wait),
	}
}

// NewSPS30 polls the particulate sensor. The loop keeps running when init
// fails.
func NewSPS30(dev *sps30.Device, out *bus.Queue[types.MainMsg], o Options) *Task {
	t := newTask(types.SensorSPS30, dev, out, o)
	t.data = func() []types.MainMsg {
		return []types.MainMsg{types.ParticulateData{Reading: dev.Reading()}}
	}
	t.observe = func(m *metrics.Collectors) { m.Particulate(dev.Reading()) }
	return t
}

// NewSHT31 polls the humidity/temperature sensor: humidity then
// temperature each cycle. The task ends when init fails.
func NewSHT31(dev *sht31.Device, out *bus.Queue[types.MainMsg], o Options) *Task {
	t := newTask(types.SensorSHT31, dev, out, o)
	t.stopOnInit = true
	t.data = func() []types.MainMsg {
		rs := dev.Readings()
		return []types.MainMsg{types.ClimateData{Reading: rs[0]}, types.ClimateData{Reading: rs[1]}}
	}
	t.observe = func(m *metrics.Collectors) {
		for _, r := range dev.Readings() {
			m.Climate(r)
		}
	}
	return t
}

// NewSGP30 polls the gas sensor. eCO2 is forwarded raw. The task ends
// when init fails.
func NewSGP30(dev *sgp30.Device, out *bus.Queue[types.MainMsg], o Options) *Task {
	t := newTask(types.SensorSGP30, dev, out, o)
	t.stopOnInit = true
	t.data = func() []types.MainMsg {
		return []types.MainMsg{types.GasData{Reading: dev.Reading()}}
	}
	t.observe = func(m *metrics.Collectors) { m.Gas(dev.Reading()) }
	return t
}

func (t *Task) ID() types.SensorID { return t.id }

// Run initialises the sensor, reports the outcome and polls until ctx is
// cancelled. It always returns nil.
func (t *Task) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	err := t.dev.Start()
	st := types.StatusOf(err)
	t.metrics.SensorStatus(t.id, st)
	t.out.Put(types.SensorInfo{Sensor: t.id, Status: st})
	if err != nil {
		t.metrics.SensorFault(t.id, errcode.Of(err))
		if t.stopOnInit {
			t.log.Error("sensor init failed, task stopped", "error", err)
			return nil
		}
		t.log.Warn("sensor init failed, polling anyway", "error", err)
	} else {
		t.log.Info("sensor ready")
	}

	for {
		t.poll()
		if !t.wait(ctx, t.every) {
			t.log.Debug("sensor task stopped")
			return nil
		}
	}
}

func (t *Task) poll() {
	err := t.dev.ReadMeasuredValues()
	st := t.dev.Status()
	t.metrics.SensorStatus(t.id, st)
	t.metrics.SensorFault(t.id, errcode.Of(err))

	if !st.OK() {
		t.log.Warn("sensor read failed", "reason", st.Reason, "code", string(st.Code))
		t.out.Put(types.SensorInfo{Sensor: t.id, Status: st})
		return
	}
	if err != nil {
		t.log.Debug("sensor read degraded", "error", err, "retained", t.dev.Stale())
	}
	t.observe(t.metrics)
	for _, m := range t.data() {
		t.out.Put(m)
	}
}
