package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// ErrNotFound is returned when a lookup matches no document. Handlers map it
// to 404/403 instead of treating it as an infrastructure failure.
var ErrNotFound = errors.New("document not found")

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error)
	FindVehiclesByUser(ctx context.Context, userID string) ([]models.Vehicle, error)
	FindVehiclesFiltered(ctx context.Context, userID string, filter bson.M) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
	FindVehicleByNickname(ctx context.Context, userID, nickname string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	UpdateVehicleMileage(ctx context.Context, id string, mileage int) error
	DeleteVehicle(ctx context.Context, id string) error
}

// MaintenanceCollection defines the interface for maintenance record
// operations. Queries are scoped to a vehicle-id set computed once per
// request from the caller's ownership.
type MaintenanceCollection interface {
	InsertMaintenance(ctx context.Context, record models.Maintenance) (*models.Maintenance, error)
	FindMaintenanceByVehicleIDs(ctx context.Context, vehicleIDs []string) ([]models.Maintenance, error)
	FindMaintenanceFiltered(ctx context.Context, vehicleIDs []string, filter bson.M) ([]models.Maintenance, error)
	FindMaintenanceByID(ctx context.Context, id string) (*models.Maintenance, error)
	UpdateMaintenance(ctx context.Context, id string, record models.Maintenance) error
	DeleteMaintenance(ctx context.Context, id string) error
}

// ReminderCollection defines the interface for maintenance reminder
// operations.
type ReminderCollection interface {
	InsertReminder(ctx context.Context, reminder models.Reminder) (*models.Reminder, error)
	FindRemindersByVehicleIDs(ctx context.Context, vehicleIDs []string) ([]models.Reminder, error)
	FindRemindersFiltered(ctx context.Context, vehicleIDs []string, filter bson.M) ([]models.Reminder, error)
	FindReminderByID(ctx context.Context, id string) (*models.Reminder, error)
	UpdateReminder(ctx context.Context, id string, reminder models.Reminder) error
	DeleteReminder(ctx context.Context, id string) error
}
