// Package orchestrator wires the sensor, aggregator, display, logic and
// publish tasks together over their queues and runs them until cancelled.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dusterilizer-go/bus"
	"dusterilizer-go/drivers/sensirion"
	"dusterilizer-go/drivers/sgp30"
	"dusterilizer-go/drivers/sht31"
	"dusterilizer-go/drivers/sps30"
	"dusterilizer-go/services/aggregator"
	"dusterilizer-go/services/config"
	"dusterilizer-go/services/display"
	"dusterilizer-go/services/hal"
	"dusterilizer-go/services/logic"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/services/publish"
	"dusterilizer-go/services/sensors"
	"dusterilizer-go/types"

	"golang.org/x/sync/errgroup"
)

// Hardware is what the binary opened. I2C is required; nil GPIO falls
// back to an in-memory chip, nil strips to the configured display
// backend, and a nil MQTT client to a logging one.
type Hardware struct {
	I2C         hal.I2C
	GPIO        hal.GPIO
	Left, Right hal.Strip
	MQTT        publish.Client
}

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collectors
	// Sleep is the driver settle delay. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

type runner interface {
	Run(ctx context.Context) error
}

type named struct {
	name string
	r    runner
}

// Orchestrator owns the queues and tasks built at startup.
type Orchestrator struct {
	cfg     config.AppConfig
	log     *slog.Logger
	metrics *metrics.Collectors

	index   int
	profile config.Profile

	mqtt  publish.Client
	pins  []hal.OutputPin
	tasks []named
	agg   *aggregator.Aggregator
}

// New runs the startup sequence: resolve the config index, select the
// threshold profile, power the fan, connect MQTT and build every task.
// Any failure here aborts startup.
func New(ctx context.Context, cfg config.AppConfig, hw Hardware, opts Options) (*Orchestrator, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if hw.I2C == nil {
		return nil, fmt.Errorf("orchestrator: no i2c bus")
	}
	if hw.GPIO == nil {
		hw.GPIO = hal.NewMemGPIO()
	}
	o := &Orchestrator{cfg: cfg, log: log, metrics: opts.Metrics}

	if err := o.selectProfile(hw.GPIO); err != nil {
		return nil, err
	}
	if err := o.openPins(hw.GPIO); err != nil {
		o.closePins()
		return nil, err
	}
	if err := o.connect(ctx, hw.MQTT); err != nil {
		o.closePins()
		return nil, err
	}
	o.build(hw, opts.Sleep)
	return o, nil
}

// Index is the resolved config index.
func (o *Orchestrator) Index() int { return o.index }

// Profile is the selected threshold profile.
func (o *Orchestrator) Profile() config.Profile { return o.profile }

func (o *Orchestrator) selectProfile(g hal.GPIO) error {
	o.index = o.cfg.ConfigIndex
	if o.index < 0 {
		v, err := hal.ReadDIP(g, o.cfg.GPIO.DIPPins)
		if err != nil {
			return fmt.Errorf("read config switches: %w", err)
		}
		o.index = v
	}
	profiles, err := config.LoadProfiles(o.cfg.ProfilesFile)
	if err != nil {
		return err
	}
	o.profile, err = profiles.Select(o.index)
	if err != nil {
		return err
	}
	o.log.Info("profile selected", "index", o.index, "mode", o.profile.Mode,
		"pm10", o.profile.Thres.PM10, "co2", o.profile.Thres.CO2, "voc", o.profile.Thres.VOC)
	return nil
}

// openPins powers the fan (when configured) and claims the actuator line
// driven low.
func (o *Orchestrator) openPins(g hal.GPIO) error {
	if o.cfg.GPIO.FanPin >= 0 {
		fan, err := g.Output(o.cfg.GPIO.FanPin, true)
		if err != nil {
			return fmt.Errorf("fan pin %d: %w", o.cfg.GPIO.FanPin, err)
		}
		o.pins = append(o.pins, fan)
	}
	act, err := g.Output(o.cfg.GPIO.LogicPin, false)
	if err != nil {
		return fmt.Errorf("logic pin %d: %w", o.cfg.GPIO.LogicPin, err)
	}
	o.pins = append(o.pins, act)
	return nil
}

func (o *Orchestrator) actuator() hal.OutputPin { return o.pins[len(o.pins)-1] }

func (o *Orchestrator) closePins() {
	for _, p := range o.pins {
		_ = p.Close()
	}
	o.pins = nil
}

func (o *Orchestrator) connect(ctx context.Context, c publish.Client) error {
	if c == nil {
		c = publish.LogClient{Log: o.log}
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	o.mqtt = c
	return nil
}

func (o *Orchestrator) strips(hw Hardware) (hal.Strip, hal.Strip) {
	if hw.Left != nil && hw.Right != nil {
		return hw.Left, hw.Right
	}
	n := o.cfg.Display.NumLEDs
	if o.cfg.Display.Backend == "log" {
		return hal.NewLogStrip("left", n, o.log), hal.NewLogStrip("right", n, o.log)
	}
	return hal.NewMemStrip(n), hal.NewMemStrip(n)
}

func (o *Orchestrator) build(hw Hardware, sleep func(time.Duration)) {
	mainQ := bus.NewQueue[types.MainMsg]("main")
	out := aggregator.Outputs{
		Display: bus.NewQueue[types.DisplayMsg]("display"),
		Logic:   bus.NewQueue[types.LogicMsg]("logic"),
		Publish: bus.NewQueue[types.PublishMsg]("mqtt"),
	}

	left, right := o.strips(hw)
	ctrl := display.NewController(left, right, display.Config{
		NumLEDs:    o.cfg.Display.NumLEDs,
		UpdateRate: o.cfg.Display.UpdateRate,
		PulseSteps: o.cfg.Display.PulseSteps,
		Logger:     o.log,
		Metrics:    o.metrics,
	})
	o.tasks = append(o.tasks,
		named{"display", display.NewTask(ctrl, out.Display, nil)},
		named{"publish", publish.NewTask(o.mqtt, out.Publish, publish.Options{Logger: o.log, Metrics: o.metrics})},
	)

	i2c := hal.NewSharedI2C(hw.I2C)
	dcfg := sensirion.Config{SettleDelay: o.cfg.I2C.Settle, Sleep: sleep, Logger: o.log}
	so := func(sc config.SensorConfig) sensors.Options {
		return sensors.Options{Every: sc.UpdateRate, Logger: o.log, Metrics: o.metrics}
	}
	s := o.cfg.Sensors
	if s.SPS30.Enabled {
		o.tasks = append(o.tasks, named{"sps30", sensors.NewSPS30(sps30.New(i2c, dcfg), mainQ, so(s.SPS30))})
	}
	if s.SHT31.Enabled {
		o.tasks = append(o.tasks, named{"sht31", sensors.NewSHT31(sht31.New(i2c, dcfg), mainQ, so(s.SHT31))})
	}
	if s.SGP30.Enabled {
		o.tasks = append(o.tasks, named{"sgp30", sensors.NewSGP30(sgp30.New(i2c, dcfg), mainQ, so(s.SGP30))})
	}
	o.tasks = append(o.tasks, named{"logic", logic.NewTask(o.actuator(), out.Logic, o.log, o.metrics)})

	o.agg = aggregator.New(mainQ, out, aggregator.Config{
		Thresholds:     o.profile.Thres,
		ConfigIndex:    o.index,
		Splash:         o.cfg.Display.Splash,
		PublishClimate: o.cfg.Publish.Climate,
		Logger:         o.log,
		Metrics:        o.metrics,
	})
}

// Run starts every task, the aggregator last, and blocks until ctx is
// cancelled. Pins are released and MQTT disconnected on return.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.closePins()
	defer o.mqtt.Disconnect()

	g, ctx := errgroup.WithContext(ctx)
	if o.metrics != nil && o.cfg.Metrics.Addr != "" {
		g.Go(func() error {
			if err := o.metrics.Serve(ctx, o.cfg.Metrics.Addr); err != nil {
				o.log.Error("metrics endpoint stopped", "addr", o.cfg.Metrics.Addr, "error", err)
			}
			return nil
		})
	}
	for _, t := range o.tasks {
		g.Go(func() error {
			err := t.r.Run(ctx)
			o.log.Debug("task stopped", "task", t.name)
			return err
		})
	}
	g.Go(func() error { return o.agg.Run(ctx) })

	o.log.Info("running", "tasks", len(o.tasks)+1)
	return g.Wait()
}
