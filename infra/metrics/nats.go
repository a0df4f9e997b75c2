package metrics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	coremetrics "github.com/kilianp07/virtos/core/metrics"
	"github.com/kilianp07/virtos/infra/logger"
)

// NATSConfig configures a NATSSink.
type NATSConfig struct {
	URL            string        `json:"url"`
	Name           string        `json:"name"`
	Subject        string        `json:"subject"`
	ReconnectWait  time.Duration `json:"reconnect_wait"`
	MaxReconnects  int           `json:"max_reconnects"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

func (c *NATSConfig) setDefaults() {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Name == "" {
		c.Name = "virtos"
	}
	if c.Subject == "" {
		c.Subject = "virtos.runs"
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
}

type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSSink publishes run summaries as JSON on <subject>.<architecture>.
type NATSSink struct {
	conn    natsConn
	subject string
}

// NewNATSSink connects to the NATS server.
func NewNATSSink(cfg NATSConfig) (*NATSSink, error) {
	cfg.setDefaults()
	log := logger.New("nats-sink")
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", cfg.URL, err)
	}
	return newNATSSinkWithConn(conn, cfg.Subject), nil
}

func newNATSSinkWithConn(conn natsConn, subject string) *NATSSink {
	return &NATSSink{conn: conn, subject: subject}
}

func (s *NATSSink) RecordRun(ev coremetrics.RunEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.conn.Publish(s.subject+"."+string(ev.Architecture), payload)
}

// Close flushes pending messages and closes the connection.
func (s *NATSSink) Close() error {
	return s.conn.Drain()
}
