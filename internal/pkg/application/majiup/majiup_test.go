package majiup

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
	"github.com/matryer/is"
)

func TestThatTanksCanBeListed(t *testing.T) {
	is, ctx, server := testSetup(t, http.StatusOK, tanksJSON)
	defer server.Close()

	api := New(server.URL+"/api", nil)

	tanks, err := api.Tanks(ctx)
	is.NoErr(err)
	is.Equal(len(tanks), 1)
	is.Equal(tanks[0].ID, "64a7d")
	is.Equal(tanks[0].Meta.Settings.Capacity, 2000.0)

	s, ok := tanks[0].SensorOfKind(domain.KindWaterLevel)
	is.True(ok)
	is.Equal(s.Value, 140.0)
}

func TestThatRequestsAreSentToTankRoutes(t *testing.T) {
	is := is.New(t)

	type call struct {
		method, path, contentType, body string
	}
	calls := []call{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(b)})

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Meta field updated successfully"}`))
	}))
	defer server.Close()

	api := New(server.URL+"/api/", nil)
	ctx := context.Background()

	is.NoErr(api.ChangeName(ctx, "64a7d", "Testing Tank"))
	is.NoErr(api.SetPumpState(ctx, "64a7d", true))
	is.NoErr(api.SetPumpState(ctx, "64a7d", false))
	_, err := api.SensorValues(ctx, "64a7d", WaterTemperature)
	is.NoErr(err)

	msg, err := api.UpdateMeta(ctx, "64a7d", domain.TankMeta{})
	is.NoErr(err)
	is.Equal(msg.Message, MetaUpdatedMessage)

	is.Equal(len(calls), 5)
	is.Equal(calls[0], call{http.MethodPost, "/api/tanks/64a7d/name", "text/plain", "Testing Tank"})
	is.Equal(calls[1], call{http.MethodPost, "/api/tanks/64a7d/pumps/state", "application/json", `{"value":1}`})
	is.Equal(calls[2], call{http.MethodPost, "/api/tanks/64a7d/pumps/state", "application/json", `{"value":0}`})
	is.Equal(calls[3].path, "/api/tanks/64a7d/tank-sensors/water-temperature/values")
	is.Equal(calls[4].path, "/api/tanks/64a7d/meta")
}

func TestThatMissingTankIsReportedAsNotFound(t *testing.T) {
	is, ctx, server := testSetup(t, http.StatusNotFound, "")
	defer server.Close()

	_, err := New(server.URL, nil).Tank(ctx, "nope")
	is.True(errors.Is(err, ErrNotFound))
}

func TestThatUnexpectedStatusIsReturnedAsStatusError(t *testing.T) {
	is, ctx, server := testSetup(t, http.StatusInternalServerError, "boom")
	defer server.Close()

	_, err := New(server.URL, nil).Pumps(ctx, "64a7d")

	var statusErr *transport.StatusError
	is.True(errors.As(err, &statusErr))
	is.Equal(statusErr.Actual, http.StatusInternalServerError)
	is.Equal(err.Error(), "request failed, expected status code 200, got 500")
}

func TestKindOf(t *testing.T) {
	is := is.New(t)

	is.Equal(KindOf(WaterLevel), domain.KindWaterLevel)
	is.Equal(KindOf(WaterTemperature), domain.KindWaterThermometer)
	is.Equal(KindOf(WaterQuality), domain.KindWaterPollutantSensor)
	is.Equal(KindOf("battery"), "")
}

func testSetup(t *testing.T, statusCode int, body string) (*is.I, context.Context, *httptest.Server) {
	is := is.New(t)
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write([]byte(body))
	}))

	return is, ctx, server
}

const tanksJSON string = `[
	{
		"id": "64a7d",
		"name": "Testing Tank",
		"sensors": [
			{
				"id": "s1",
				"name": "WaterLevel",
				"value": 140,
				"meta": {"kind": "WaterLevel"}
			}
		],
		"actuators": [
			{
				"id": "a1",
				"name": "Pump",
				"value": 0,
				"meta": {"kind": "Motor"}
			}
		],
		"meta": {
			"settings": {"height": 1650, "capacity": 2000, "maxalert": 1900, "minalert": 100},
			"notifications": {"messages": []}
		},
		"modified": "2023-07-07T09:23:15.76Z",
		"created": "2023-07-07T09:20:00Z"
	}
]`
