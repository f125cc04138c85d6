package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementEngagement is the measurement every engagement point is written to.
const MeasurementEngagement = "engagement"

// WriteEngagement records one engagement event.
//
// Tags identify the event and its target; the delta field is +1 or -1 so
// that a sum over a window gives the net change (a like then an unlike is 0).
// After Close the point is counted in Dropped instead.
//
//	client.WriteEngagement("like", "video", "vid-1234", "acc-42", 1, time.Now())
func (c *Client) WriteEngagement(event, targetType, targetID, actorID string, delta int, at time.Time) {
	if c.closed.Load() {
		c.dropped.Add(1)
		return
	}

	p := write.NewPointWithMeasurement(MeasurementEngagement).
		AddTag("event", event).
		AddTag("target_type", targetType).
		AddTag("target_id", targetID).
		AddField("delta", delta).
		SetTime(at)
	if actorID != "" {
		p.AddTag("actor_id", actorID)
	}
	c.writer.WritePoint(p)
}
