package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"
)

func TestParseTopic(t *testing.T) {
	is := is.New(t)

	device, sensor, err := ParseTopic("devices/64a7d/sensors/s1/value")
	is.NoErr(err)
	is.Equal(device, "64a7d")
	is.Equal(sensor, "s1")

	_, _, err = ParseTopic("/devices/64a7d/sensors/s1/value")
	is.NoErr(err) // leading slash is tolerated

	for _, topic := range []string{"devices/64a7d/value", "devices//sensors/s1/value", "devices/a/sensors/b/meta", "gateway/a/sensors/b/value"} {
		_, _, err = ParseTopic(topic)
		is.True(errors.Is(err, ErrMalformedTopic))
	}
}

func TestParseValue(t *testing.T) {
	is := is.New(t)

	v, err := ParseValue([]byte(" 312\n"))
	is.NoErr(err)
	is.Equal(v, 312.0)

	v, err = ParseValue([]byte(`{"value": 21.5}`))
	is.NoErr(err)
	is.Equal(v, 21.5)

	_, err = ParseValue([]byte("high"))
	is.True(err != nil)

	_, err = ParseValue([]byte(`{"level": 3}`))
	is.True(err != nil)
}

func TestThatValidMessagesReachHandler(t *testing.T) {
	is := is.New(t)

	var mu sync.Mutex
	received := []Reading{}

	h := NewMessageHandler(context.Background(), func(_ context.Context, r Reading) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, r)
	})

	h(nil, &message{topic: "devices/d1/sensors/s1/value", payload: []byte("140")})
	h(nil, &message{topic: "devices/d1/sensors/s1/value", payload: []byte("n/a")})
	h(nil, &message{topic: "devices/d1/actuators/a1/value", payload: []byte("1")})

	is.Equal(len(received), 1) // malformed messages should be dropped
	is.Equal(received[0].DeviceID, "d1")
	is.Equal(received[0].SensorID, "s1")
	is.Equal(received[0].Value, 140.0)
}

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 1 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 1 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}
