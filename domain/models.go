package domain

import "time"

// Sensor kinds as stored in a sensor's meta.kind field on the gateway.
const (
	KindWaterThermometer     string = "WaterThermometer"
	KindWaterLevel           string = "WaterLevel"
	KindWaterPollutantSensor string = "WaterPollutantSensor"
	KindMotor                string = "Motor"
)

type Tank struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Sensors   []Sensor   `json:"sensors"`
	Actuators []Actuator `json:"actuators"`
	Meta      TankMeta   `json:"meta"`
	Modified  time.Time  `json:"modified"`
	Created   time.Time  `json:"created"`
}

// SensorOfKind returns the first sensor with the given meta kind.
func (t Tank) SensorOfKind(kind string) (Sensor, bool) {
	for _, s := range t.Sensors {
		if s.Meta.Kind == kind {
			return s, true
		}
	}
	return Sensor{}, false
}

// Pump returns the tank's Motor actuator.
func (t Tank) Pump() (Actuator, bool) {
	for _, a := range t.Actuators {
		if a.Meta.Kind == KindMotor {
			return a, true
		}
	}
	return Actuator{}, false
}

type TankMeta struct {
	ReceiveNotifications bool          `json:"receivenotifications,omitempty"`
	Notifications        Notifications `json:"notifications"`
	Location             *Location     `json:"location,omitempty"`
	Settings             Settings      `json:"settings"`
	Profile              *Profile      `json:"profile,omitempty"`
}

type Settings struct {
	Height   float64 `json:"height"`
	Offset   float64 `json:"offset,omitempty"`
	Capacity float64 `json:"capacity"`
	MaxAlert float64 `json:"maxalert"`
	MinAlert float64 `json:"minalert"`
}

type Notifications struct {
	Messages []Message `json:"messages"`
}

type Message struct {
	ID       int    `json:"id,omitempty"`
	TankName string `json:"tank_name,omitempty"`
	Date     string `json:"time,omitempty"`
	Priority string `json:"priority,omitempty"`
	Message  string `json:"message"`
	Read     bool   `json:"read_status"`
}

type Location struct {
	Coordinates Coordinates `json:"cordinates"`
	Address     string      `json:"address"`
}

type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

type Sensor struct {
	ID       string     `json:"id,omitempty"`
	Name     string     `json:"name"`
	Modified *time.Time `json:"modified,omitempty"`
	Created  *time.Time `json:"created,omitempty"`
	Time     *time.Time `json:"time,omitempty"`
	Meta     SensorMeta `json:"meta"`
	Value    any        `json:"value"`
}

type SensorMeta struct {
	Kind        string  `json:"kind"`
	Unit        string  `json:"units,omitempty"`
	CriticalMin float64 `json:"critical_min,omitempty"`
	CriticalMax float64 `json:"critical_max,omitempty"`
}

type Actuator struct {
	ID       string       `json:"id,omitempty"`
	Name     string       `json:"name"`
	Modified *time.Time   `json:"modified,omitempty"`
	Created  *time.Time   `json:"created,omitempty"`
	Time     *time.Time   `json:"time,omitempty"`
	Meta     ActuatorMeta `json:"meta"`
	Value    any          `json:"value"`
}

type ActuatorMeta struct {
	Kind string `json:"kind"`
}

// SensorValue is one element of a sensor or actuator value history.
type SensorValue struct {
	Value any       `json:"value"`
	Time  time.Time `json:"time"`
}

type PumpState struct {
	Value int `json:"value"`
}

type APIMessage struct {
	Message string `json:"message"`
}

// Credentials is the body accepted by the gateway and remote auth endpoints.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ValueAsFloat converts a JSON decoded sensor value to a float64.
func ValueAsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
