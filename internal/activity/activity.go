// Package activity fans domain events out to best-effort sinks: the MQTT
// event bus and the InfluxDB engagement series.
//
// Recording never fails the operation that produced the event.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/vidhub-core/internal/infrastructure/logging"
)

// Event types.
const (
	VideoPublished      = "video.published"
	VideoViewed         = "video.viewed"
	CommentCreated      = "comment.created"
	TweetCreated        = "tweet.created"
	LikeCreated         = "like.created"
	LikeRemoved         = "like.removed"
	SubscriptionCreated = "subscription.created"
	SubscriptionRemoved = "subscription.removed"
)

// Event is one domain occurrence.
type Event struct {
	Type       string    `json:"type"`
	ActorID    string    `json:"actor_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Delta      int       `json:"delta"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink receives events.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Nop discards every event.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(context.Context, Event) {}

// Fanout records each event on every sink in order.
type Fanout []Sink

// Record implements Sink.
func (f Fanout) Record(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if ev.Delta == 0 {
		ev.Delta = 1
	}
	for _, s := range f {
		s.Record(ctx, ev)
	}
}

// Publisher is satisfied by *mqtt.Client.
type Publisher interface {
	PublishEvent(eventType string, payload []byte) error
}

// MQTTSink publishes each event as JSON on vidhub/events/<type>.
type MQTTSink struct {
	pub    Publisher
	logger *logging.Logger
}

// NewMQTTSink creates an MQTT-backed sink.
func NewMQTTSink(pub Publisher, logger *logging.Logger) *MQTTSink {
	return &MQTTSink{pub: pub, logger: logger}
}

// Record implements Sink.
func (s *MQTTSink) Record(_ context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn("encoding event failed", "type", ev.Type, "error", err)
		return
	}
	if err := s.pub.PublishEvent(ev.Type, payload); err != nil {
		s.logger.Debug("publishing event failed", "type", ev.Type, "error", err)
	}
}

// EngagementWriter is satisfied by *influxdb.Client.
type EngagementWriter interface {
	WriteEngagement(event, targetType, targetID, actorID string, delta int, at time.Time)
}

// InfluxSink writes each event as an engagement point.
type InfluxSink struct {
	w EngagementWriter
}

// NewInfluxSink creates an InfluxDB-backed sink.
func NewInfluxSink(w EngagementWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// Record implements Sink.
func (s *InfluxSink) Record(_ context.Context, ev Event) {
	s.w.WriteEngagement(ev.Type, ev.TargetType, ev.TargetID, ev.ActorID, ev.Delta, ev.OccurredAt)
}
