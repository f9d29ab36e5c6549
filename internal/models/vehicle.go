package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a vehicle owned by a user.
type Vehicle struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"user_id" json:"user_id"`
	VehicleType       string             `bson:"vehicle_type" json:"vehicle_type"` // "Sedan", "Coupe", "Motorcycle"
	Make              string             `bson:"make" json:"make"`                 // "Subaru", "Toyota"
	Model             string             `bson:"model" json:"model"`               // "Outback", "Camry"
	Color             string             `bson:"color" json:"color"`
	Year              int                `bson:"year" json:"year"`
	Mileage           int                `bson:"mileage" json:"mileage"`
	VIN               string             `bson:"vin" json:"vin"`
	LicensePlate      string             `bson:"license_plate" json:"license_plate"`
	RegistrationState string             `bson:"registration_state" json:"registration_state"`
	FuelType          string             `bson:"fuel_type" json:"fuel_type"` // "Gasoline", "Electric", "Diesel"
	TransmissionType  string             `bson:"transmission_type" json:"transmission_type"`
	IsActive          bool               `bson:"is_active" json:"is_active"`
	Nickname          string             `bson:"nickname" json:"nickname"` // "Big Bertha"
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}
