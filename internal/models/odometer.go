package models

import "time"

// OdometerReading is a mileage report for a vehicle, typically published by
// a telematics device over MQTT.
type OdometerReading struct {
	VehicleID  string    `json:"vehicle_id"`
	Mileage    int       `json:"mileage"`
	RecordedAt time.Time `json:"recorded_at"`
}
