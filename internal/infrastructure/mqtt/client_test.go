package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/vidhub-core/internal/infrastructure/config"
)

// fakeToken is a completed paho token.
type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakePaho records publishes. Methods not overridden panic via the nil embed.
type fakePaho struct {
	pahomqtt.Client

	mu           sync.Mutex
	connected    bool
	publishErr   error
	messages     []published
	disconnected bool
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload any) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body string
	switch p := payload.(type) {
	case []byte:
		body = string(p)
	case string:
		body = p
	}
	f.messages = append(f.messages, published{topic, qos, retained, body})
	return &fakeToken{err: f.publishErr}
}

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	f.disconnected = true
	f.connected = false
	f.mu.Unlock()
}

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1883, ClientID: "vidhub-test"},
		QoS:    1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		got, want string
	}{
		{topics.Event("video.published"), "vidhub/events/video.published"},
		{topics.Event("bad/type+#"), "vidhub/events/bad_type__"},
		{topics.Event(""), "vidhub/events/unknown"},
		{topics.AllEvents(), "vidhub/events/#"},
		{topics.SystemStatus(), "vidhub/system/status"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestPublishEvent(t *testing.T) {
	fake := &fakePaho{connected: true}
	c := newWithClient(fake, testConfig())

	if err := c.PublishEvent("like.created", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	if len(fake.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(fake.messages))
	}
	msg := fake.messages[0]
	if msg.topic != "vidhub/events/like.created" || msg.qos != 1 || msg.retained {
		t.Errorf("published %+v", msg)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := newWithClient(&fakePaho{connected: true}, testConfig())

	tests := []struct {
		name    string
		topic   string
		qos     byte
		payload []byte
		want    error
	}{
		{"empty topic", "", 0, nil, ErrInvalidTopic},
		{"wildcard topic", "vidhub/events/#", 0, nil, ErrInvalidTopic},
		{"qos too high", "vidhub/events/x", 3, nil, ErrInvalidQoS},
		{"oversized payload", "vidhub/events/x", 0, make([]byte, maxPayloadSize+1), ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublish_Disconnected(t *testing.T) {
	c := newWithClient(&fakePaho{connected: false}, testConfig())

	if err := c.PublishEvent("x", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishEvent() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestPublish_BrokerError(t *testing.T) {
	c := newWithClient(&fakePaho{connected: true, publishErr: errors.New("broker said no")}, testConfig())

	err := c.PublishEvent("x", []byte("{}"))
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishEvent() error = %v, want ErrPublishFailed", err)
	}
}

func TestClose_PublishesOfflineStatus(t *testing.T) {
	fake := &fakePaho{connected: true}
	c := newWithClient(fake, testConfig())

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.disconnected {
		t.Error("Close() did not disconnect")
	}
	if len(fake.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(fake.messages))
	}
	msg := fake.messages[0]
	if msg.topic != "vidhub/system/status" || !msg.retained || !strings.Contains(msg.payload, "graceful_shutdown") {
		t.Errorf("offline status = %+v", msg)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}

func TestHandleConnect_PublishesOnlineStatus(t *testing.T) {
	fake := &fakePaho{connected: true}
	c := newWithClient(fake, testConfig())
	c.setConnected(false)

	c.handleConnect()

	if !c.IsConnected() {
		t.Error("IsConnected() = false after handleConnect")
	}
	if len(fake.messages) != 1 || !strings.Contains(fake.messages[0].payload, `"status":"online"`) {
		t.Errorf("online status = %+v", fake.messages)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "vidhub"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want ssl://127.0.0.1:1883", opts.Servers)
	}
	if opts.Username != "vidhub" || opts.ClientID != "vidhub-test" {
		t.Errorf("Username/ClientID = %q/%q", opts.Username, opts.ClientID)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig not set for TLS broker")
	}

	if !opts.WillEnabled || opts.WillTopic != "vidhub/system/status" || !opts.WillRetained {
		t.Errorf("LWT = enabled:%v topic:%q retained:%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	if !strings.Contains(string(opts.WillPayload), "unexpected_disconnect") {
		t.Errorf("LWT payload = %s", opts.WillPayload)
	}
}

func TestBuildClientOptions_ReconnectDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Reconnect = config.MQTTReconnectConfig{}

	opts := buildClientOptions(cfg)
	if opts.ConnectRetryInterval != defaultRetryInterval || opts.MaxReconnectInterval != defaultMaxReconnect {
		t.Errorf("reconnect = %v/%v, want defaults", opts.ConnectRetryInterval, opts.MaxReconnectInterval)
	}
	if opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
}
