package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Defaults applied when a reminder is created without explicit values.
const (
	DefaultNotifyBeforeMiles    = 500
	DefaultNotifyBeforeDays     = 14
	DefaultEstimatedMilesPerMon = 500 // deliberately below the average driver
)

// Reminder represents a recurring maintenance reminder for a vehicle.
//
// A reminder is configured on a mileage interval, a time interval, or both.
// At least one dimension must be fully specified at creation time; the
// due-state classifier tolerates partial configuration by treating the
// reminder as neither upcoming nor overdue.
type Reminder struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID             string             `bson:"vehicle_id" json:"vehicle_id"`
	MaintenanceType       string             `bson:"maintenance_type" json:"maintenance_type"` // "Oil Change", "Tire Rotation"
	Details               string             `bson:"details,omitempty" json:"details,omitempty"`
	IntervalMiles         *int               `bson:"interval_miles,omitempty" json:"interval_miles,omitempty"`   // 3000, 60000
	IntervalMonths        *int               `bson:"interval_months,omitempty" json:"interval_months,omitempty"` // 6, 12
	LastServicedMileage   *int               `bson:"last_serviced_mileage,omitempty" json:"last_serviced_mileage,omitempty"`
	LastServicedDate      *time.Time         `bson:"last_serviced_date,omitempty" json:"last_serviced_date,omitempty"`
	NotifyBeforeMiles     int                `bson:"notify_before_miles" json:"notify_before_miles"`
	NotifyBeforeDays      int                `bson:"notify_before_days" json:"notify_before_days"`
	EstimatedMilesPerMon  int                `bson:"estimated_miles_driven_per_month" json:"estimated_miles_driven_per_month"`
	IsActive              bool               `bson:"is_active" json:"is_active"`
	CreatedAt             time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt             *time.Time         `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ReferenceDate resolves the anchor instant for interval projections:
// last service date if recorded, else the last update, else creation.
func (r *Reminder) ReferenceDate() time.Time {
	if r.LastServicedDate != nil {
		return *r.LastServicedDate
	}
	if r.UpdatedAt != nil {
		return *r.UpdatedAt
	}
	return r.CreatedAt
}
