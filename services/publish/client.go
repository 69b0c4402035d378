package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dusterilizer-go/errcode"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	_defaultQoS        = 0 // at most once
	_defaultRetained   = false
	_connectTimeout    = 5 * time.Second
	_keepAlive         = 10 * time.Second
	_disconnectQuiesce = 250 // ms
)

// Client is the broker boundary used by the publish task.
type Client interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Disconnect()
}

type PahoOptions struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	PublishTimeout time.Duration
	Logger         *slog.Logger
}

var _ Client = (*PahoClient)(nil)

// PahoClient publishes through an eclipse/paho connection with automatic
// reconnect.
type PahoClient struct {
	client  paho.Client
	timeout time.Duration
	log     *slog.Logger
}

func NewPahoClient(opts PahoOptions) *PahoClient {
	c := &PahoClient{timeout: opts.PublishTimeout, log: opts.Logger}
	if c.timeout <= 0 {
		c.timeout = 5 * time.Second
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.client = paho.NewClient(c.options(opts))
	return c
}

func (c *PahoClient) options(opts PahoOptions) *paho.ClientOptions {
	return paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(paho.Client) {
			c.log.Info("connected to MQTT broker", "broker", opts.Broker)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.log.Error("connection lost to MQTT broker", "error", err)
		}).
		SetKeepAlive(_keepAlive).
		SetConnectTimeout(_connectTimeout)
}

func (c *PahoClient) Connect(ctx context.Context) error {
	if err := wait(ctx, c.client.Connect(), _connectTimeout); err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	return nil
}

func (c *PahoClient) Publish(ctx context.Context, topic string, payload []byte) error {
	tok := c.client.Publish(topic, _defaultQoS, _defaultRetained, payload)
	if err := wait(ctx, tok, c.timeout); err != nil {
		return fmt.Errorf("publishing to topic %s: %w", topic, err)
	}
	return nil
}

func (c *PahoClient) Disconnect() {
	if c.client.IsConnected() {
		c.client.Disconnect(_disconnectQuiesce)
	}
}

func wait(ctx context.Context, tok paho.Token, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-t.C:
		return errcode.Timeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Client = (*LogClient)(nil)

// LogClient stands in for a broker when MQTT is disabled. Each publish is
// logged at debug level and succeeds.
type LogClient struct{ Log *slog.Logger }

func (LogClient) Connect(context.Context) error { return nil }

func (c LogClient) Publish(ctx context.Context, topic string, payload []byte) error {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	log.DebugContext(ctx, "publish", "topic", topic, "payload", string(payload))
	return nil
}

func (LogClient) Disconnect() {}
