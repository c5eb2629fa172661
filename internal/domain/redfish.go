package domain

import "context"

// Power states reported by a ComputerSystem.
const (
	PowerStateOn  = "On"
	PowerStateOff = "Off"
)

// Reset types accepted by ComputerSystem.Reset.
const (
	ResetOn               = "On"
	ResetForceOff         = "ForceOff"
	ResetGracefulShutdown = "GracefulShutdown"
	ResetForceRestart     = "ForceRestart"
	ResetGracefulRestart  = "GracefulRestart"
	ResetPowerCycle       = "PowerCycle"
)

// Status is the common Redfish status object.
type Status struct {
	State  string `json:"State"`
	Health string `json:"Health"`
}

// System is the subset of a Redfish ComputerSystem that bmcprobe checks.
type System struct {
	ID         string  `json:"Id"`
	Name       string  `json:"Name"`
	PowerState string  `json:"PowerState"`
	Status     *Status `json:"Status"`
}

// Sensor is a single Redfish sensor resource.
type Sensor struct {
	ID             string   `json:"Id"`
	Name           string   `json:"Name"`
	Reading        *float64 `json:"Reading"`
	ReadingCelsius *float64 `json:"ReadingCelsius"`
	ReadingUnits   string   `json:"ReadingUnits"`
	Status         *Status  `json:"Status"`
}

// Value returns the numeric reading, preferring Reading over the older
// ReadingCelsius property.
func (s Sensor) Value() (float64, bool) {
	if s.Reading != nil {
		return *s.Reading, true
	}
	if s.ReadingCelsius != nil {
		return *s.ReadingCelsius, true
	}
	return 0, false
}

// SystemReader reads the managed ComputerSystem.
type SystemReader interface {
	GetSystem(ctx context.Context) (System, error)
}

// PowerController issues ComputerSystem.Reset actions.
type PowerController interface {
	Reset(ctx context.Context, resetType string) error
}

// SensorReader reads the chassis sensor collection.
type SensorReader interface {
	ListSensors(ctx context.Context) ([]Sensor, error)
	FindSensor(ctx context.Context, filter SensorFilter) (*Sensor, error)
}

// SensorFilter selects sensors by name.
type SensorFilter interface {
	Matches(sensorName string) bool
}

// OutOfBandReader reads a sensor through a channel other than Redfish.
// found is false when the tool reports no reading for the sensor.
type OutOfBandReader interface {
	ReadSensor(ctx context.Context, name string) (value float64, found bool, err error)
}
