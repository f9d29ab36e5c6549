package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Maintenance represents a vehicle maintenance record.
//
// Cost and ServicedAt are optional: a record can be logged before the invoice
// arrives, or for work whose service date is unknown.
type Maintenance struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID           string             `bson:"vehicle_id" json:"vehicle_id"`
	MaintenanceProvider string             `bson:"maintenance_provider" json:"maintenance_provider"` // "Valvoline", "Self"
	MaintenanceType     string             `bson:"maintenance_type" json:"maintenance_type"`         // "Oil Change", "Brake Replacement"
	Description         string             `bson:"description" json:"description"`
	Mileage             int                `bson:"mileage" json:"mileage"`
	Cost                *float64           `bson:"cost,omitempty" json:"cost,omitempty"`
	ServicedAt          *time.Time         `bson:"serviced_at,omitempty" json:"serviced_at,omitempty"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updated_at"`
}
