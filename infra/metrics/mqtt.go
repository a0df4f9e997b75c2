package metrics

import (
	"context"
	"encoding/json"
	"time"

	coremetrics "github.com/kilianp07/virtos/core/metrics"
	coremqtt "github.com/kilianp07/virtos/core/mqtt"
	inframqtt "github.com/kilianp07/virtos/infra/mqtt"
)

// MQTTSink publishes run summaries as JSON on <prefix>/runs/<architecture>
// and, when enabled, series on <prefix>/runs/<architecture>/timeseries.
type MQTTSink struct {
	pub        coremqtt.Publisher
	cfg        inframqtt.Config
	timeseries bool
	timeout    time.Duration
}

// NewMQTTSink wraps a connected publisher.
func NewMQTTSink(pub coremqtt.Publisher, cfg inframqtt.Config, timeseries bool) *MQTTSink {
	return &MQTTSink{pub: pub, cfg: cfg, timeseries: timeseries, timeout: 5 * time.Second}
}

func (s *MQTTSink) RecordRun(ev coremetrics.RunEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.pub.Publish(ctx, s.cfg.Topic("runs", string(ev.Architecture)), payload)
}

type seriesMessage struct {
	RunID        string    `json:"run_id"`
	Start        time.Time `json:"start"`
	Architecture string    `json:"architecture"`
	SiteName     string    `json:"site_name"`
	TimestepH    float64   `json:"timestep_h"`
	Series       any       `json:"series"`
}

func (s *MQTTSink) RecordTimeseries(ev coremetrics.TimeseriesEvent) error {
	if !s.timeseries {
		return nil
	}
	payload, err := json.Marshal(seriesMessage{
		RunID:        ev.RunID,
		Start:        ev.Start,
		Architecture: string(ev.Architecture),
		SiteName:     ev.SiteName,
		TimestepH:    ev.TimestepH,
		Series:       ev.Series,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.pub.Publish(ctx, s.cfg.Topic("runs", string(ev.Architecture), "timeseries"), payload)
}

// Close disconnects the publisher.
func (s *MQTTSink) Close() error {
	s.pub.Close()
	return nil
}
