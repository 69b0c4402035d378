// Package logic drives the actuator output from aggregator switch messages.
package logic

import (
	"context"
	"log/slog"

	"dusterilizer-go/bus"
	"dusterilizer-go/services/hal"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/types"
)

type Task struct {
	pin     hal.OutputPin
	in      *bus.Queue[types.LogicMsg]
	log     *slog.Logger
	metrics *metrics.Collectors
	on      bool
}

func NewTask(pin hal.OutputPin, in *bus.Queue[types.LogicMsg], log *slog.Logger, m *metrics.Collectors) *Task {
	if log == nil {
		log = slog.Default()
	}
	return &Task{pin: pin, in: in, log: log.With("task", "logic"), metrics: m}
}

// Run drives the output low on return.
func (t *Task) Run(ctx context.Context) error {
	defer t.set(false)
	for {
		m, err := t.in.Get(ctx)
		if err != nil {
			return nil
		}
		switch msg := m.(type) {
		case types.Switch:
			if msg.On != t.on {
				t.log.Info("actuator", "state", msg.Topic())
			}
			t.set(msg.On)
		default:
			t.log.Warn("unknown logic message", "topic", m.Topic())
		}
	}
}

func (t *Task) set(on bool) {
	t.on = on
	if err := t.pin.Set(on); err != nil {
		t.log.Warn("actuator write failed", "error", err)
	}
	t.metrics.Actuator(on)
}
