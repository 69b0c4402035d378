// Package aggregator is the main loop: it folds sensor readings into the
// hazard signal and fans the result out to the display, logic and publish
// queues.
package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dusterilizer-go/bus"
	"dusterilizer-go/errcode"
	"dusterilizer-go/services/config"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/types"
	"dusterilizer-go/x/timex"
)

// Config is fixed at construction.
type Config struct {
	Thresholds config.Thresholds
	// ConfigIndex is shown as index/8 during the startup splash.
	ConfigIndex int
	Splash      time.Duration
	// PublishClimate forwards humidity/temperature to the hum/tmp topic.
	PublishClimate bool

	Logger  *slog.Logger
	Metrics *metrics.Collectors
	Wait    timex.Wait
}

// Outputs are the queues the aggregator feeds.
type Outputs struct {
	Display *bus.Queue[types.DisplayMsg]
	Logic   *bus.Queue[types.LogicMsg]
	Publish *bus.Queue[types.PublishMsg]
}

type Aggregator struct {
	cfg Config
	in  *bus.Queue[types.MainMsg]
	out Outputs
	log *slog.Logger
	sig types.ControlSignal
}

func New(in *bus.Queue[types.MainMsg], out Outputs, cfg Config) *Aggregator {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	cfg.Wait = timex.OrSleep(cfg.Wait)
	return &Aggregator{cfg: cfg, in: in, out: out, log: log.With("task", "main")}
}

// Signal returns the current hazard ratios.
func (a *Aggregator) Signal() types.ControlSignal { return a.sig }

// Run shows the config splash, then handles one inbound message per cycle
// until ctx is cancelled or the inbound queue is closed.
func (a *Aggregator) Run(ctx context.Context) error {
	a.log.Info("config selected", "index", a.cfg.ConfigIndex,
		"pm10", a.cfg.Thresholds.PM10, "co2", a.cfg.Thresholds.CO2, "voc", a.cfg.Thresholds.VOC)
	a.out.Display.Put(types.Percent{Value: float64(a.cfg.ConfigIndex) / 8})
	if !a.cfg.Wait(ctx, a.cfg.Splash) {
		return nil
	}

	for {
		m, err := a.in.Get(ctx)
		if err != nil {
			if errors.Is(err, bus.ErrClosed) {
				a.log.Info("main queue closed")
			}
			return nil
		}
		a.Handle(m)
	}
}

// Handle processes one inbound message and dispatches to display, logic
// and, when there is a payload, publish, in that order.
func (a *Aggregator) Handle(m types.MainMsg) {
	var pub types.PublishMsg

	switch msg := m.(type) {
	case types.SensorInfo:
		a.cfg.Metrics.SensorStatus(msg.Sensor, msg.Status)
		if msg.Status.OK() {
			a.log.Info("sensor info", "sensor", string(msg.Sensor), "status", msg.Status.String())
		} else {
			a.log.Warn("sensor info", "sensor", string(msg.Sensor), "status", msg.Status.String())
		}
	case types.ParticulateData:
		a.sig.PM10 = float64(msg.Reading.PM10Mass) / a.cfg.Thresholds.PM10
		a.log.Debug("particulate", "pm10_mass", msg.Reading.PM10Mass, "pm10_percent", a.sig.PM10)
		pub = types.PMPublish{Reading: msg.Reading}
	case types.ClimateData:
		a.log.Debug("climate", "quantity", msg.Reading.Quantity.String(), "value", msg.Reading.Value)
		if a.cfg.PublishClimate {
			pub = types.ClimatePublish{Payload: types.ClimatePayload(msg.Reading)}
		}
	case types.GasData:
		a.log.Debug("gas", "co2", msg.Reading.CO2eq, "voc", msg.Reading.TVOC)
	default:
		a.log.Warn("unknown message", "error", errcode.ProtocolFault, "topic", topicOf(m))
	}

	a.cfg.Metrics.Hazard(a.sig)
	a.out.Display.Put(types.PercentSmooth{Value: a.sig.DisplayPercent()})
	a.out.Logic.Put(types.Switch{On: a.sig.Exceeded()})
	if pub != nil {
		a.out.Publish.Put(pub)
	}
}

func topicOf(m types.MainMsg) string {
	if m == nil {
		return "nil"
	}
	return m.Topic()
}
