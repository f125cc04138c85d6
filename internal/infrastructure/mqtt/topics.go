package mqtt

import "strings"

// Topic prefixes for vidhub MQTT traffic.
const (
	// TopicPrefix is the root of every vidhub topic.
	TopicPrefix = "vidhub"

	// TopicPrefixEvents is the base for domain event topics.
	TopicPrefixEvents = "vidhub/events"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "vidhub/system"
)

// Topics provides builders for vidhub MQTT topics.
//
//	topic := mqtt.Topics{}.Event("video.published")
//	// Returns: "vidhub/events/video.published"
type Topics struct{}

// Event returns the topic for a domain event type.
// Characters that are MQTT level separators or wildcards are replaced with '_'.
func (Topics) Event(eventType string) string {
	return TopicPrefixEvents + "/" + sanitiseLevel(eventType)
}

// AllEvents returns the wildcard subscription for every domain event.
func (Topics) AllEvents() string {
	return TopicPrefixEvents + "/#"
}

// SystemStatus returns the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

var levelReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

func sanitiseLevel(s string) string {
	if s == "" {
		return "unknown"
	}
	return levelReplacer.Replace(s)
}
