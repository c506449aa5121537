package fiware

import (
	"encoding/json"
	"testing"

	"github.com/JosephMusya/majiup-tools/domain"
	"github.com/matryer/is"
)

func TestThatReadingsAreCreatedForKnownSensors(t *testing.T) {
	is := is.New(t)

	tank := domain.Tank{}
	is.NoErr(json.Unmarshal([]byte(tankJSON), &tank))

	readings := Readings(tank)
	is.Equal(len(readings), 3) // water level, temperature and pump state

	is.Equal(readings[0].Name, "waterLevel")
	is.Equal(readings[0].Value, 140.0)
	is.Equal(readings[0].UnitCode, "CMT")
	is.Equal(readings[0].ObservedAt, "2023-07-07T09:23:15Z")

	is.Equal(readings[1].Name, "temperature")
	is.Equal(readings[1].ObservedAt, "")

	is.Equal(readings[2].Name, "pumpState")
	is.Equal(readings[2].Value, 1.0)
}

func TestThatNonNumericValuesAreSkipped(t *testing.T) {
	is := is.New(t)

	tank := domain.Tank{
		Sensors: []domain.Sensor{
			{Name: "WaterLevel", Value: "unknown", Meta: domain.SensorMeta{Kind: domain.KindWaterLevel}},
		},
	}

	is.Equal(len(Readings(tank)), 0)
}

func TestDeviceID(t *testing.T) {
	is := is.New(t)
	is.Equal(DeviceID("64a7d"), "urn:ngsi-ld:Device:majiup:64a7d")
}

const tankJSON string = `{
	"id": "64a7d",
	"name": "Kitchen Tank",
	"sensors": [
		{
			"id": "s1",
			"name": "WaterLevel",
			"time": "2023-07-07T09:23:15.76Z",
			"value": 140,
			"meta": {"kind": "WaterLevel", "units": "cm"}
		},
		{
			"id": "s2",
			"name": "Temperature Sensor",
			"value": 28,
			"meta": {"kind": "WaterThermometer"}
		},
		{
			"id": "s3",
			"name": "Water Quality Sensor",
			"value": null,
			"meta": {"kind": "WaterPollutantSensor"}
		}
	],
	"actuators": [
		{
			"id": "a1",
			"name": "Pump",
			"value": 1,
			"meta": {"kind": "Motor"}
		}
	]
}`
