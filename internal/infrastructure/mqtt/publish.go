package mqtt

import (
	"errors"
	"fmt"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Sentinel errors. Check with errors.Is.
var (
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
	ErrInvalidQoS       = errors.New("mqtt: qos must be 0, 1 or 2")
	ErrInvalidTopic     = errors.New("mqtt: publish topic must be non-empty and wildcard-free")
)

// maxPayloadSize bounds one event body (1 MiB).
const maxPayloadSize = 1 << 20

// PublishEvent publishes an event body on vidhub/events/<eventType> with the
// configured QoS. Events are never retained.
func (c *Client) PublishEvent(eventType string, payload []byte) error {
	return c.Publish(Topics{}.Event(eventType), payload, byte(c.cfg.QoS), false) //nolint:gosec // G115: QoS validated by config
}

// Publish sends payload to topic and waits for the broker acknowledgement.
//
// Parameters:
//   - topic: Concrete topic; wildcards are rejected
//   - payload: Message body (max 1 MiB)
//   - qos: 0, 1 or 2
//   - retained: Whether the broker keeps the message for late subscribers
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or a wrapped ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := checkPublish(topic, qos, len(payload)); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return await(c.client.Publish(topic, qos, retained, payload), topic)
}

func checkPublish(topic string, qos byte, size int) error {
	switch {
	case topic == "" || strings.ContainsAny(topic, "+#"):
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case size > maxPayloadSize:
		return fmt.Errorf("%w: %s: payload of %d bytes exceeds %d", ErrPublishFailed, topic, size, maxPayloadSize)
	}
	return nil
}

// await blocks until token completes or the publish timeout passes.
func await(token pahomqtt.Token, topic string) error {
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: %s: no ack after %v", ErrPublishFailed, topic, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}
