package apitest

import (
	"time"

	"github.com/JosephMusya/majiup-tools/domain"
)

const TestTankName string = "Testing Tank"

// TestingTank is the device document registered on the gateway before each
// group of cases runs.
func TestingTank() domain.Tank {
	qualityTime := time.Date(2023, 7, 7, 9, 23, 15, 760000000, time.UTC)

	return domain.Tank{
		Name: TestTankName,
		Meta: domain.TankMeta{
			Settings: domain.Settings{
				Height:   1650,
				Capacity: 2000,
				MaxAlert: 1900,
				MinAlert: 100,
			},
		},
		Sensors: []domain.Sensor{
			{
				Name:  "Temperature Sensor",
				Value: 28,
				Meta:  domain.SensorMeta{Kind: domain.KindWaterThermometer},
			},
			{
				Name:  "WaterLevel",
				Value: 140,
				Meta:  domain.SensorMeta{Kind: domain.KindWaterLevel},
			},
			{
				Name:  "Water Quality Sensor",
				Time:  &qualityTime,
				Value: 611,
				Meta:  domain.SensorMeta{Kind: domain.KindWaterPollutantSensor},
			},
		},
		Actuators: []domain.Actuator{
			{
				Name:  "Pump",
				Value: 0,
				Meta:  domain.ActuatorMeta{Kind: domain.KindMotor},
			},
		},
	}
}

// UpdatedMeta is the meta document posted by the meta update case.
func UpdatedMeta() domain.TankMeta {
	return domain.TankMeta{
		Settings: domain.Settings{
			Capacity: 3400,
			Height:   1650,
			MaxAlert: 1900,
			MinAlert: 100,
		},
		Notifications: domain.Notifications{
			Messages: []domain.Message{
				{Message: "Notification Message", Read: false},
			},
		},
	}
}
