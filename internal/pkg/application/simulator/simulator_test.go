package simulator

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"testing"

	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
	"github.com/matryer/is"
)

func TestThatEveryIterationIsPosted(t *testing.T) {
	is := is.New(t)

	poster := &posterMock{}
	cfg := Config{DeviceID: "d1", SensorID: "s1", Iterations: 200, Min: DefaultMin, Max: DefaultMax}

	result, err := Run(context.Background(), cfg, poster, rand.New(rand.NewSource(1)))
	is.NoErr(err)
	is.Equal(result.Posted, 200)
	is.Equal(result.Failed, 0)
	is.Equal(len(poster.values), 200)

	for _, v := range poster.values {
		is.True(v >= DefaultMin && v <= DefaultMax) // value out of range
	}
}

func TestThatFailedPostsDoNotStopTheRun(t *testing.T) {
	is := is.New(t)

	poster := &posterMock{
		fail: func(i int) error {
			if i%2 == 0 {
				return &transport.StatusError{Expected: http.StatusOK, Actual: http.StatusBadGateway}
			}
			return nil
		},
	}
	cfg := Config{DeviceID: "d1", SensorID: "s1", Iterations: 10, Min: 1, Max: 2}

	result, err := Run(context.Background(), cfg, poster, rand.New(rand.NewSource(1)))
	is.NoErr(err)
	is.Equal(result.Posted, 5)
	is.Equal(result.Failed, 5)
	is.Equal(len(poster.values), 10)
}

func TestThatCancellationStopsTheRun(t *testing.T) {
	is := is.New(t)

	ctx, cancel := context.WithCancel(context.Background())

	poster := &posterMock{
		fail: func(i int) error {
			if i == 2 {
				cancel()
			}
			return nil
		},
	}
	cfg := Config{DeviceID: "d1", SensorID: "s1", Iterations: 100, Min: 50, Max: 700, Delay: DefaultDelay}

	result, err := Run(ctx, cfg, poster, rand.New(rand.NewSource(1)))
	is.True(errors.Is(err, context.Canceled))
	is.Equal(result.Posted, 3)
}

func TestThatInvalidConfigIsRejected(t *testing.T) {
	is := is.New(t)

	_, err := Run(context.Background(), Config{SensorID: "s1", Iterations: 1, Min: 1, Max: 2}, &posterMock{}, nil)
	is.True(err != nil) // missing device id

	_, err = Run(context.Background(), Config{DeviceID: "d1", SensorID: "s1", Iterations: 1, Min: 3, Max: 2}, &posterMock{}, nil)
	is.True(err != nil) // min above max
}

func TestThatReadingIsInclusive(t *testing.T) {
	is := is.New(t)

	rnd := rand.New(rand.NewSource(42))
	seen := map[int]bool{}

	for i := 0; i < 1000; i++ {
		v := Reading(rnd, 1, 3)
		is.True(v >= 1 && v <= 3)
		seen[v] = true
	}

	is.Equal(len(seen), 3) // both bounds should be reachable
}

type posterMock struct {
	mu     sync.Mutex
	values []int
	fail   func(i int) error
}

func (p *posterMock) PostSensorValue(ctx context.Context, deviceID, sensorID string, value int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := len(p.values)
	p.values = append(p.values, value)

	if p.fail != nil {
		return p.fail(i)
	}
	return nil
}
