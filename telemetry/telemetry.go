// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package telemetry mirrors delivered aggregates to an MQTT broker.
package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/iso"
	"github.com/henskjold73/hydropi/window"
)

type (
	// Publisher publishes each delivered aggregate as a retained MQTT v5
	// message. It connects lazily and reconnects on the next publish after
	// any failure.
	Publisher struct {
		broker    *url.URL
		topic     string
		clientID  string
		keepAlive uint16
		tls       *tls.Config
		log       logger

		mu     sync.Mutex
		client *paho.Client
	}

	// Option represents a single option for the publisher.
	Option func(*Publisher)
)

const (
	// DefaultTopic is used when no topic is configured.
	DefaultTopic = "hydropi/tilts"

	contentType   = "application/json"
	payloadFormat = byte(1)
)

// WithClientID sets the MQTT client id. A random id is used otherwise.
func WithClientID(id string) Option {
	return func(p *Publisher) { p.clientID = id }
}

// WithKeepAlive sets the keep-alive interval.
func WithKeepAlive(d time.Duration) Option {
	return func(p *Publisher) { p.keepAlive = uint16(d / time.Second) }
}

// WithTLSConfig sets the TLS configuration for mqtts:// brokers.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(p *Publisher) { p.tls = cfg }
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.log = logger{log.Wrap(l)} }
}

// New creates a publisher for the broker URL (mqtt://host[:port] or
// mqtts://host[:port]).
func New(broker, topic string, opt ...Option) (*Publisher, error) {
	u, err := url.Parse(broker)
	if err != nil {
		return nil, &ConfigError{Field: "broker", Value: broker, Err: err}
	}
	switch u.Scheme {
	case "mqtt", "tcp", "mqtts", "ssl", "tls":
	default:
		return nil, &ConfigError{
			Field: "broker",
			Value: broker,
			Err:   fmt.Errorf("unsupported scheme %q", u.Scheme),
		}
	}
	if u.Hostname() == "" {
		return nil, &ConfigError{
			Field: "broker",
			Value: broker,
			Err:   errors.New("missing host"),
		}
	}
	if topic == "" {
		topic = DefaultTopic
	}

	p := &Publisher{broker: u, topic: topic, keepAlive: 30}
	for _, o := range opt {
		o(p)
	}
	if p.clientID == "" {
		p.clientID = "hydropi-" + uuid.NewString()
	}
	return p, nil
}

// Topic returns the topic messages are published to.
func (p *Publisher) Topic() string {
	return p.topic
}

// Notify publishes the aggregate with QoS 1 and the retain flag set, so new
// subscribers immediately see the latest delivery.
func (p *Publisher) Notify(
	ctx context.Context,
	res window.Result,
	sentAt time.Time,
) error {
	if res == nil {
		res = window.Result{}
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return &PublishError{Topic: p.topic, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	client, err := p.connect(ctx)
	if err != nil {
		return err
	}

	format := payloadFormat
	pub := &paho.Publish{
		QoS:     1,
		Retain:  true,
		Topic:   p.topic,
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType:   contentType,
			PayloadFormat: &format,
			User: paho.UserProperties{{
				Key:   "sent_at",
				Value: iso.DateTime(sentAt).String(),
			}},
		},
	}
	p.log.packet(ctx, pub)

	if _, err := client.Publish(ctx, pub); err != nil {
		p.reset()
		return &PublishError{Topic: p.topic, Err: err}
	}
	return nil
}

// Close disconnects from the broker if connected.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	err := p.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
	p.client = nil
	return err
}

// The caller holds the lock.
func (p *Publisher) connect(ctx context.Context) (*paho.Client, error) {
	if p.client != nil {
		return p.client, nil
	}

	conn, err := p.dial(ctx)
	if err != nil {
		return nil, &ConnectionError{Broker: p.broker.Host, Err: err}
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID: p.clientID,
		Conn:     conn,
		OnClientError: func(err error) {
			p.log.Err(context.Background(), &ConnectionError{
				Broker: p.broker.Host,
				Err:    err,
			})
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			p.log.disconnected(context.Background(), d)
		},
	})

	connect := &paho.Connect{
		ClientID:   p.clientID,
		KeepAlive:  p.keepAlive,
		CleanStart: true,
	}
	if u := p.broker.User; u != nil {
		connect.Username = u.Username()
		connect.UsernameFlag = true
		if pw, ok := u.Password(); ok {
			connect.Password = []byte(pw)
			connect.PasswordFlag = true
		}
	}
	masked := *connect
	masked.Password = nil
	p.log.packet(ctx, &masked)

	if _, err := client.Connect(ctx, connect); err != nil {
		_ = conn.Close()
		return nil, &ConnectionError{Broker: p.broker.Host, Err: err}
	}

	p.log.connected(ctx, p.broker.Host, p.clientID)
	p.client = client
	return client, nil
}

// The caller holds the lock.
func (p *Publisher) reset() {
	if p.client != nil {
		_ = p.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		p.client = nil
	}
}

func (p *Publisher) dial(ctx context.Context) (net.Conn, error) {
	secure := p.broker.Scheme == "mqtts" ||
		p.broker.Scheme == "ssl" ||
		p.broker.Scheme == "tls"

	port := p.broker.Port()
	if port == "" {
		port = "1883"
		if secure {
			port = "8883"
		}
	}
	addr := net.JoinHostPort(p.broker.Hostname(), port)

	if secure {
		d := tls.Dialer{Config: p.tls}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}
