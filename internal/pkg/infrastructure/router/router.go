package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/majiup"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
)

type Router interface {
	Start(port string) error
	Handler() http.Handler
}

type routerStruct struct {
	router chi.Router
	log    zerolog.Logger
	store  *store
	creds  domain.Credentials
	token  string
}

// SetupRouter registers a stand-in for the Majiup tank API (under /api and at
// the root) and for the parts of the Wazigate device API the tools use.
// With non-empty creds, tokens are only issued for creds and every /devices
// route requires the issued bearer token. Empty creds leave the stub open.
func SetupRouter(chiRouter chi.Router, log zerolog.Logger, creds domain.Credentials) *routerStruct {
	r := &routerStruct{
		router: chiRouter,
		log:    log,
		store:  newStore(),
		creds:  creds,
		token:  "stub-token",
	}

	chiRouter.Use(middleware.Logger)
	chiRouter.Get("/health", r.health)

	chiRouter.Post("/auth/token", r.authToken)

	chiRouter.Route("/devices", func(dr chi.Router) {
		dr.Use(r.authorize)
		dr.Get("/", r.listTanks)
		dr.Post("/", r.createDevice)
		dr.Get("/{tankID}", r.getTank)
		dr.Delete("/{tankID}", r.deleteTank)
		dr.Post("/{tankID}/name", r.changeName)
		dr.Get("/{tankID}/meta", r.getMeta)
		dr.Post("/{tankID}/meta", r.postMeta)
		dr.Post("/{tankID}/sensors/{sensorID}/value", r.postSensorValue)
		dr.Get("/{tankID}/sensors/{sensorID}/meta", r.getSensorMeta)
		dr.Post("/{tankID}/sensors/{sensorID}/meta", r.postSensorMeta)
	})

	chiRouter.Route("/api", r.tankRoutes)
	r.tankRoutes(chiRouter)

	return r
}

func (r *routerStruct) tankRoutes(tr chi.Router) {
	tr.Get("/tanks", r.listTanks)
	tr.Route("/tanks/{tankID}", func(t chi.Router) {
		t.Get("/", r.getTank)
		t.Delete("/", r.deleteTank)
		t.Post("/name", r.changeName)
		t.Get("/meta", r.getMeta)
		t.Post("/meta", r.postMeta)
		t.Get("/tank-info", r.tankInfo)
		t.Get("/tank-sensors", r.tankSensors)
		t.Get("/tank-sensors/{kind}", r.sensor)
		t.Get("/tank-sensors/{kind}/value", r.sensorValue)
		t.Get("/tank-sensors/{kind}/values", r.sensorValues)
		t.Get("/pumps", r.pumps)
		t.Get("/pumps/state", r.pumpState)
		t.Get("/pumps/states", r.pumpStates)
		t.Post("/pumps/state", r.postPumpState)
	})
}

func (r *routerStruct) Handler() http.Handler {
	return r.router
}

func (r *routerStruct) Start(port string) error {
	r.log.Info().Str("port", port).Msg("starting to listen for connections")
	return http.ListenAndServe(fmt.Sprintf(":%s", port), r.router)
}

func (router *routerStruct) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (router *routerStruct) authToken(w http.ResponseWriter, r *http.Request) {
	creds := domain.Credentials{}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !router.open() && creds != router.creds {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, router.token)
}

func (router *routerStruct) open() bool {
	return router.creds == domain.Credentials{}
}

func (router *routerStruct) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !router.open() && r.Header.Get("Authorization") != "Bearer "+router.token {
			router.log.Warn().Str("path", r.URL.Path).Msg("missing or invalid bearer token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (router *routerStruct) createDevice(w http.ResponseWriter, r *http.Request) {
	tank := domain.Tank{}
	if err := json.NewDecoder(r.Body).Decode(&tank); err != nil {
		router.log.Error().Err(err).Msg("failed to decode device")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id := router.store.create(tank)
	router.log.Info().Str("tank_id", id).Msg("device created")

	writeJSON(w, id)
}

func (router *routerStruct) listTanks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, router.store.list())
}

func (router *routerStruct) getTank(w http.ResponseWriter, r *http.Request) {
	tank, ok := router.tank(w, r)
	if !ok {
		return
	}
	writeJSON(w, tank)
}

func (router *routerStruct) deleteTank(w http.ResponseWriter, r *http.Request) {
	if !router.store.remove(chi.URLParam(r, "tankID")) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, domain.APIMessage{Message: "Tank deleted successfully"})
}

func (router *routerStruct) changeName(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	name := strings.Trim(strings.TrimSpace(string(b)), `"`)

	ok := router.store.update(chi.URLParam(r, "tankID"), func(t *domain.Tank) {
		t.Name = name
	})
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, domain.APIMessage{Message: "Tank name changed successfully"})
}

func (router *routerStruct) getMeta(w http.ResponseWriter, r *http.Request) {
	tank, ok := router.tank(w, r)
	if !ok {
		return
	}
	writeJSON(w, tank.Meta)
}

func (router *routerStruct) postMeta(w http.ResponseWriter, r *http.Request) {
	meta := domain.TankMeta{}
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ok := router.store.update(chi.URLParam(r, "tankID"), func(t *domain.Tank) {
		t.Meta = meta
	})
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, domain.APIMessage{Message: majiup.MetaUpdatedMessage})
}

func (router *routerStruct) tankInfo(w http.ResponseWriter, r *http.Request) {
	tank, ok := router.tank(w, r)
	if !ok {
		return
	}

	s, ok := tank.SensorOfKind(domain.KindWaterLevel)
	if !ok {
		writeJSON(w, []domain.SensorValue{})
		return
	}

	writeJSON(w, router.store.values(tank.ID, s.ID))
}

func (router *routerStruct) tankSensors(w http.ResponseWriter, r *http.Request) {
	tank, ok := router.tank(w, r)
	if !ok {
		return
	}
	writeJSON(w, tank.Sensors)
}

func (router *routerStruct) sensor(w http.ResponseWriter, r *http.Request) {
	_, s, ok := router.sensorOfRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, s)
}

func (router *routerStruct) sensorValue(w http.ResponseWriter, r *http.Request) {
	_, s, ok := router.sensorOfRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.Value)
}

func (router *routerStruct) sensorValues(w http.ResponseWriter, r *http.Request) {
	tank, s, ok := router.sensorOfRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, router.store.values(tank.ID, s.ID))
}

func (router *routerStruct) pumps(w http.ResponseWriter, r *http.Request) {
	tank, ok := router.tank(w, r)
	if !ok {
		return
	}

	pumps := []domain.Actuator{}
	if p, ok := tank.Pump(); ok {
		pumps = append(pumps, p)
	}

	writeJSON(w, pumps)
}

func (router *routerStruct) pumpState(w http.ResponseWriter, r *http.Request) {
	_, p, ok := router.pumpOfRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, domain.SensorValue{Value: p.Value, Time: timeOrZero(p.Time)})
}

func (router *routerStruct) pumpStates(w http.ResponseWriter, r *http.Request) {
	tank, p, ok := router.pumpOfRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, router.store.values(tank.ID, p.ID))
}

func (router *routerStruct) postPumpState(w http.ResponseWriter, r *http.Request) {
	tank, p, ok := router.pumpOfRequest(w, r)
	if !ok {
		return
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Accepts both {"value": n} and a bare n.
	var value any
	state := domain.PumpState{}
	if err := json.Unmarshal(b, &state); err == nil {
		value = state.Value
	} else if err := json.Unmarshal(b, &value); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	router.store.setValue(tank.ID, p.ID, value)
	router.log.Info().Str("tank_id", tank.ID).Interface("value", value).Msg("actuator status changed")

	writeJSON(w, value)
}

func (router *routerStruct) postSensorValue(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !router.store.setValue(chi.URLParam(r, "tankID"), chi.URLParam(r, "sensorID"), v) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (router *routerStruct) getSensorMeta(w http.ResponseWriter, r *http.Request) {
	tank, ok := router.tank(w, r)
	if !ok {
		return
	}

	for _, s := range tank.Sensors {
		if s.ID == chi.URLParam(r, "sensorID") {
			writeJSON(w, s.Meta)
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
}

func (router *routerStruct) postSensorMeta(w http.ResponseWriter, r *http.Request) {
	meta := domain.SensorMeta{}
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sensorID := chi.URLParam(r, "sensorID")
	found := false

	ok := router.store.update(chi.URLParam(r, "tankID"), func(t *domain.Tank) {
		for i := range t.Sensors {
			if t.Sensors[i].ID == sensorID {
				t.Sensors[i].Meta = meta
				found = true
			}
		}
	})
	if !ok || !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (router *routerStruct) tank(w http.ResponseWriter, r *http.Request) (domain.Tank, bool) {
	tank, ok := router.store.get(chi.URLParam(r, "tankID"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return domain.Tank{}, false
	}
	return tank, true
}

func (router *routerStruct) sensorOfRequest(w http.ResponseWriter, r *http.Request) (domain.Tank, domain.Sensor, bool) {
	tank, ok := router.tank(w, r)
	if !ok {
		return domain.Tank{}, domain.Sensor{}, false
	}

	kind := majiup.KindOf(majiup.SensorPath(chi.URLParam(r, "kind")))

	s, ok := tank.SensorOfKind(kind)
	if kind == "" || !ok {
		w.WriteHeader(http.StatusNotFound)
		return domain.Tank{}, domain.Sensor{}, false
	}

	return tank, s, true
}

func (router *routerStruct) pumpOfRequest(w http.ResponseWriter, r *http.Request) (domain.Tank, domain.Actuator, bool) {
	tank, ok := router.tank(w, r)
	if !ok {
		return domain.Tank{}, domain.Actuator{}, false
	}

	p, ok := tank.Pump()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return domain.Tank{}, domain.Actuator{}, false
	}

	return tank, p, true
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
