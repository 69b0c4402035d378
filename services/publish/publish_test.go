package publish

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dusterilizer-go/bus"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/types"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	topic   string
	payload string
}

type fakeClient struct {
	mu   sync.Mutex
	sent []sent
	fail map[string]error
}

func (f *fakeClient) Connect(context.Context) error { return nil }
func (f *fakeClient) Disconnect()                   {}

func (f *fakeClient) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[topic]; err != nil {
		return err
	}
	f.sent = append(f.sent, sent{topic, string(payload)})
	return nil
}

func fixedNow() int64 { return 1700000000 }

func TestEncode_PMAddsTimestamp(t *testing.T) {
	task := NewTask(&fakeClient{}, nil, Options{Now: fixedNow})
	b, err := task.Encode(types.PMPublish{Reading: types.ParticulateReading{
		PM05Num: 1.5, PM10Mass: 42, TypicalSize: 0.5,
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"pm05_num": 1.5, "pm1_num": 0, "pm25_num": 0, "pm4_num": 0, "pm10_num": 0,
		"pm1_mass": 0, "pm25_mass": 0, "pm4_mass": 0, "pm10_mass": 42,
		"typical_size": 0.5, "timestamp": 1700000000
	}`, string(b))
}

func TestEncode_ClimatePassesThrough(t *testing.T) {
	task := NewTask(&fakeClient{}, nil, Options{})
	b, err := task.Encode(types.ClimatePublish{Payload: []byte("45.68")})
	require.NoError(t, err)
	assert.Equal(t, "45.68", string(b))
}

func TestRun_PublishesInOrderAndSurvivesFailures(t *testing.T) {
	fc := &fakeClient{fail: map[string]error{"hum/tmp": errors.New("broker down")}}
	m := metrics.New()
	q := bus.NewQueue[types.PublishMsg]("mqtt")
	q.Put(types.PMPublish{Reading: types.ParticulateReading{PM10Mass: 1}})
	q.Put(types.ClimatePublish{Payload: []byte("21.46")})
	q.Put(types.PMPublish{Reading: types.ParticulateReading{PM10Mass: 2}})
	q.Close()

	done := make(chan error, 1)
	go func() { done <- NewTask(fc, q, Options{Metrics: m, Now: fixedNow}).Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish task did not stop on closed queue")
	}

	require.Len(t, fc.sent, 2)
	assert.Equal(t, "pm", fc.sent[0].topic)
	assert.Contains(t, fc.sent[1].payload, `"pm10_mass":2`)

	want := `
# HELP dusterilizer_published_total MQTT publishes by topic and result.
# TYPE dusterilizer_published_total counter
dusterilizer_published_total{result="error",topic="hum/tmp"} 1
dusterilizer_published_total{result="ok",topic="pm"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "dusterilizer_published_total"))
}

func TestRun_ReturnsOnCancel(t *testing.T) {
	q := bus.NewQueue[types.PublishMsg]("mqtt")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewTask(&fakeClient{}, q, Options{}).Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish task ignored cancellation")
	}
}

func TestPahoOptions(t *testing.T) {
	c := &PahoClient{}
	o := c.options(PahoOptions{
		Broker:   "tcp://192.168.50.100:1883",
		ClientID: "dusterilizer_test",
		Username: "u",
		Password: "p",
	})
	require.Len(t, o.Servers, 1)
	assert.Equal(t, "192.168.50.100:1883", o.Servers[0].Host)
	assert.Equal(t, "dusterilizer_test", o.ClientID)
	assert.Equal(t, "u", o.Username)
	assert.True(t, o.AutoReconnect)
	assert.Equal(t, _connectTimeout, o.ConnectTimeout)
}

func TestLogClient(t *testing.T) {
	var c Client = LogClient{}
	require.NoError(t, c.Connect(context.Background()))
	assert.NoError(t, c.Publish(context.Background(), "pm", []byte("{}")))
	c.Disconnect()
}
