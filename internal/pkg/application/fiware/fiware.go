package fiware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/majiup"
	"github.com/diwise/context-broker/pkg/ngsild/client"
	ngsierrors "github.com/diwise/context-broker/pkg/ngsild/errors"
	"github.com/diwise/context-broker/pkg/ngsild/types"
	"github.com/diwise/context-broker/pkg/ngsild/types/entities"
	. "github.com/diwise/context-broker/pkg/ngsild/types/entities/decorators"
	"github.com/diwise/context-broker/pkg/ngsild/types/properties"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

const (
	DeviceTypeName string = "Device"
	DeviceIDPrefix string = "urn:ngsi-ld:Device:majiup:"
)

var tracer = otel.Tracer("majiup-tools/fiware")

func DeviceID(tankID string) string {
	return DeviceIDPrefix + tankID
}

// MirrorTanks creates or updates one Device entity per tank known to the tank
// API. A failing tank does not stop the others.
func MirrorTanks(ctx context.Context, api majiup.Client, cbClient client.ContextBrokerClient) error {
	logger := logging.GetFromContext(ctx)

	tanks, err := api.Tanks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tanks: %w", err)
	}

	logger.Info().Msgf("mirroring %d tanks", len(tanks))

	var errs []error
	for _, tank := range tanks {
		if err := CreateOrUpdateDevice(ctx, cbClient, tank); err != nil {
			errs = append(errs, fmt.Errorf("tank %s: %w", tank.ID, err))
		}
	}

	return errors.Join(errs...)
}

func CreateOrUpdateDevice(ctx context.Context, cbClient client.ContextBrokerClient, tank domain.Tank) error {
	var err error

	ctx, span := tracer.Start(ctx, "create-or-update-device")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

	headers := map[string][]string{"Content-Type": {"application/ld+json"}}

	decorators := []entities.EntityDecoratorFunc{entities.DefaultContext(), Text("name", tank.Name)}

	if !tank.Modified.IsZero() {
		decorators = append(decorators, DateTime(properties.DateObserved, tank.Modified.UTC().Format(time.RFC3339)))
	}

	if loc := tank.Meta.Location; loc != nil {
		decorators = append(decorators, Location(loc.Coordinates.Latitude, loc.Coordinates.Longitude))
	}

	for _, r := range Readings(tank) {
		props := []properties.NumberPropertyDecoratorFunc{}
		if r.ObservedAt != "" {
			props = append(props, properties.ObservedAt(r.ObservedAt))
		}
		if r.UnitCode != "" {
			props = append(props, properties.UnitCode(r.UnitCode))
		}
		decorators = append(decorators, Number(r.Name, r.Value, props...))
	}

	entityID := DeviceID(tank.ID)

	var fragment types.EntityFragment
	fragment, err = entities.NewFragment(decorators...)
	if err != nil {
		err = fmt.Errorf("failed to create entity fragment: %w", err)
		return err
	}

	_, err = cbClient.MergeEntity(ctx, entityID, fragment, headers)
	if err == nil {
		logger.Info().Msgf("updated entity %s", entityID)
		return nil
	}

	if !errors.Is(err, ngsierrors.ErrNotFound) {
		logger.Error().Err(err).Msg("failed to merge entity")
		return err
	}

	var entity types.Entity
	entity, err = entities.New(entityID, DeviceTypeName, decorators...)
	if err != nil {
		err = fmt.Errorf("failed to create new entity: %w", err)
		return err
	}

	_, err = cbClient.CreateEntity(ctx, entity, headers)
	if err != nil {
		logger.Error().Err(err).Msg("failed to post entity to context broker")
		return err
	}

	logger.Info().Msgf("created entity %s", entityID)

	return nil
}

// Reading is a numeric device property derived from a tank sensor or pump.
type Reading struct {
	Name       string
	Value      float64
	UnitCode   string
	ObservedAt string
}

// Readings returns one property per known sensor kind that carries a numeric
// value, followed by the pump state when the tank has a pump.
func Readings(tank domain.Tank) []Reading {
	readings := []Reading{}

	for _, kind := range []string{domain.KindWaterLevel, domain.KindWaterThermometer, domain.KindWaterPollutantSensor} {
		s, ok := tank.SensorOfKind(kind)
		if !ok {
			continue
		}

		v, ok := domain.ValueAsFloat(s.Value)
		if !ok {
			continue
		}

		r := Reading{Name: propertyNames[kind], Value: v, UnitCode: unitCodes[s.Meta.Unit]}
		if s.Time != nil {
			r.ObservedAt = s.Time.UTC().Format(time.RFC3339)
		}

		readings = append(readings, r)
	}

	if p, ok := tank.Pump(); ok {
		if v, ok := domain.ValueAsFloat(p.Value); ok {
			r := Reading{Name: "pumpState", Value: v}
			if p.Time != nil {
				r.ObservedAt = p.Time.UTC().Format(time.RFC3339)
			}
			readings = append(readings, r)
		}
	}

	return readings
}

var propertyNames map[string]string = map[string]string{
	domain.KindWaterLevel:           "waterLevel",
	domain.KindWaterThermometer:     "temperature",
	domain.KindWaterPollutantSensor: "waterQuality",
}

var unitCodes map[string]string = map[string]string{
	"cm":      "CMT",
	"mm":      "MMT",
	"m":       "MTR",
	"°C":      "CEL",
	"Celsius": "CEL",
	"ppm":     "59",
	"ppb":     "61",
	"%":       "P1",
}
