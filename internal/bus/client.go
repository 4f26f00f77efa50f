package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	retryInterval  = 5 * time.Second
	publishTimeout = 10 * time.Second
)

var _ Publisher = (*Client)(nil)

// Handler receives messages for a subscribed topic.
type Handler func(topic string, payload []byte)

// Client wraps a paho MQTT client. It keeps retrying the initial connect in
// the background, so the service comes up even when the broker is down;
// /health exposes IsConnected. Subscriptions are kept in a registry and
// replayed on every (re)connect because the session is clean.
type Client struct {
	qos byte

	mu   sync.Mutex
	subs map[string]Handler

	client mqtt.Client
}

func Connect(brokerURL, clientID string, qos byte) *Client {
	c := &Client{
		qos:  qos,
		subs: make(map[string]Handler),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetConnectTimeout(connectTimeout).
		SetOrderMatters(false)

	opts.SetOnConnectHandler(func(mc mqtt.Client) {
		slog.Info("connected to mqtt broker", "broker", brokerURL)
		c.resubscribe(mc)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	c.client.Connect()

	return c
}

// Publish marshals payload to JSON and delivers it to topic, blocking until
// the broker acks or the timeout fires.
func (c *Client) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	tok := c.client.Publish(topic, c.qos, false, data)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out after %s", topic, publishTimeout)
	}

	err = tok.Error()
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}

// Subscribe registers handler for topic. The subscription survives
// reconnects; if the broker is currently unreachable it is applied on the
// next successful connect.
func (c *Client) Subscribe(topic string, handler Handler) {
	c.mu.Lock()
	c.subs[topic] = handler
	c.mu.Unlock()

	if c.client.IsConnectionOpen() {
		c.subscribe(c.client, topic, handler)
	}
}

func (c *Client) resubscribe(mc mqtt.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for topic, handler := range c.subs {
		c.subscribe(mc, topic, handler)
	}
}

func (c *Client) subscribe(mc mqtt.Client, topic string, handler Handler) {
	tok := mc.Subscribe(topic, c.qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})

	go func() {
		tok.Wait()

		err := tok.Error()
		if err != nil {
			slog.Error("mqtt subscribe failed", "topic", topic, "error", err)
		}
	}()
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Disconnect waits up to 250ms for in-flight messages, then closes.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
