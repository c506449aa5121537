package wazigate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/infrastructure/transport"
	"github.com/matryer/is"
)

func TestThatSensorValueIsPostedAsPlainText(t *testing.T) {
	is := is.New(t)

	var path, contentType, body, auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		path, contentType, body, auth = r.URL.Path, r.Header.Get("Content-Type"), string(b), r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gw := New(server.URL, nil)
	is.NoErr(gw.PostSensorValue(context.Background(), "64a7d", "s1", 312))

	is.Equal(path, "/devices/64a7d/sensors/s1/value")
	is.Equal(contentType, "text/plain")
	is.Equal(body, "312")
	is.Equal(auth, "") // no token set

	gw.SetToken("abc")
	is.NoErr(gw.PostSensorValue(context.Background(), "64a7d", "s1", 50))
	is.Equal(auth, "Bearer abc")
}

func TestThatTokenIsUnquoted(t *testing.T) {
	is := is.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := domain.Credentials{}
		json.NewDecoder(r.Body).Decode(&creds)

		if r.URL.Path != "/auth/token" || creds.Username != "admin" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("\"eyJhbGciOi\"\n"))
	}))
	defer server.Close()

	gw := New(server.URL, nil)

	token, err := gw.Token(context.Background(), domain.Credentials{Username: "admin", Password: "loragateway"})
	is.NoErr(err)
	is.Equal(token, "eyJhbGciOi")

	_, err = gw.Token(context.Background(), domain.Credentials{Username: "guest"})
	var statusErr *transport.StatusError
	is.True(errors.As(err, &statusErr))
	is.Equal(statusErr.Actual, http.StatusUnauthorized)
}

func TestThatCreateDeviceReturnsNewID(t *testing.T) {
	is := is.New(t)

	var received domain.Tank

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`"64a7d"`))
	}))
	defer server.Close()

	id, err := New(server.URL, nil).CreateDevice(context.Background(), domain.Tank{Name: "Testing Tank"})
	is.NoErr(err)
	is.Equal(id, "64a7d")
	is.Equal(received.Name, "Testing Tank")
}

func TestThatEmptyDeviceIDIsAnError(t *testing.T) {
	is := is.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`""`))
	}))
	defer server.Close()

	_, err := New(server.URL, nil).CreateDevice(context.Background(), domain.Tank{})
	is.True(err != nil)
}

func TestThatSensorMetaCanBeReadAndWritten(t *testing.T) {
	is := is.New(t)

	stored := []byte(`{"kind":"WaterLevel","critical_min":100}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices/64a7d/sensors/s1/meta" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodPost {
			stored, _ = io.ReadAll(r.Body)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(stored)
	}))
	defer server.Close()

	gw := New(server.URL, nil)
	ctx := context.Background()

	meta, err := gw.SensorMeta(ctx, "64a7d", "s1")
	is.NoErr(err)
	is.Equal(meta["kind"], "WaterLevel")

	meta["critical_max"] = 1900.0
	is.NoErr(gw.PostSensorMeta(ctx, "64a7d", "s1", meta))

	meta, err = gw.SensorMeta(ctx, "64a7d", "s1")
	is.NoErr(err)
	is.Equal(meta["critical_max"], 1900.0)
}
