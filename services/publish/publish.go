// Package publish forwards aggregator telemetry to an MQTT broker.
package publish

import (
	"context"
	"encoding/json"
	"log/slog"

	"dusterilizer-go/bus"
	"dusterilizer-go/errcode"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/types"
	"dusterilizer-go/x/timex"
)

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collectors
	// Now stamps pm payloads in Unix seconds. Defaults to the wall clock.
	Now func() int64
}

// Task drains the publish queue into a Client. Failed publishes are
// logged and counted, and never stop the task.
type Task struct {
	client  Client
	in      *bus.Queue[types.PublishMsg]
	now     func() int64
	log     *slog.Logger
	metrics *metrics.Collectors
}

func NewTask(c Client, in *bus.Queue[types.PublishMsg], opts Options) *Task {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = timex.NowUnix
	}
	return &Task{client: c, in: in, now: now, log: log.With("task", "publish"), metrics: opts.Metrics}
}

type pmPayload struct {
	types.ParticulateReading
	Timestamp int64 `json:"timestamp"`
}

// Encode renders m as the broker payload.
func (t *Task) Encode(m types.PublishMsg) ([]byte, error) {
	switch msg := m.(type) {
	case types.PMPublish:
		return json.Marshal(pmPayload{ParticulateReading: msg.Reading, Timestamp: t.now()})
	case types.ClimatePublish:
		return msg.Payload, nil
	}
	return nil, errcode.New(errcode.ProtocolFault, "publish.encode", "unknown topic "+m.Topic())
}

func (t *Task) Run(ctx context.Context) error {
	for {
		m, err := t.in.Get(ctx)
		if err != nil {
			return nil
		}
		t.publish(ctx, m)
	}
}

func (t *Task) publish(ctx context.Context, m types.PublishMsg) {
	topic := m.Topic()
	payload, err := t.Encode(m)
	if err == nil {
		err = t.client.Publish(ctx, topic, payload)
	}
	t.metrics.Published(topic, err)
	if err != nil {
		t.log.Warn("publish failed", "topic", topic, "error", err)
		return
	}
	t.log.Debug("published", "topic", topic, "bytes", len(payload))
}
