// Package mqtt publishes vidhub domain events to an MQTT broker.
//
// Topics:
//
//	vidhub/events/<type>   domain events (video.published, like.created, ...)
//	vidhub/system/status   retained online/offline status with Last Will
//
// The client reconnects automatically. Publishing while disconnected
// returns ErrNotConnected; callers treat events as best effort.
package mqtt
