package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// OdometerTopic is the MQTT topic filter for odometer readings. The wildcard
// segment carries the vehicle id, but the payload's vehicle_id field is
// authoritative.
const OdometerTopic = "vehicles/+/odometer"

const applyTimeout = 10 * time.Second

// OdometerIngest subscribes to odometer readings published by telematics
// devices and advances vehicle odometers. Readings at or below the stored
// mileage are dropped so a replayed or out-of-order message never rolls an
// odometer back.
type OdometerIngest struct {
	vehicles db.VehicleCollection
	client   mqtt.Client
}

// NewOdometerIngest connects to the broker and returns a stopped ingest.
func NewOdometerIngest(broker, clientID string, vehicles db.VehicleCollection) (*OdometerIngest, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", token.Error())
	}

	return &OdometerIngest{vehicles: vehicles, client: client}, nil
}

// Start subscribes to the odometer topic.
func (i *OdometerIngest) Start() error {
	token := i.client.Subscribe(OdometerTopic, 1, i.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt subscribe error: %w", token.Error())
	}
	log.WithField("topic", OdometerTopic).Info("Odometer ingest started")
	return nil
}

// Stop disconnects from the broker.
func (i *OdometerIngest) Stop() {
	i.client.Disconnect(250)
}

func (i *OdometerIngest) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var reading models.OdometerReading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping malformed odometer reading")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	if err := i.Apply(ctx, reading); err != nil {
		log.WithError(err).WithField("vehicle_id", reading.VehicleID).Error("Failed to apply odometer reading")
	}
}

// Apply validates a reading and advances the vehicle's odometer. Readings
// for unknown vehicles and non-advancing readings are dropped silently.
func (i *OdometerIngest) Apply(ctx context.Context, reading models.OdometerReading) error {
	if reading.VehicleID == "" || reading.Mileage < 0 {
		return nil
	}

	vehicle, err := i.vehicles.FindVehicleByID(ctx, reading.VehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch vehicle: %w", err)
	}

	if reading.Mileage <= vehicle.Mileage {
		return nil
	}

	if err := i.vehicles.UpdateVehicleMileage(ctx, reading.VehicleID, reading.Mileage); err != nil {
		return fmt.Errorf("failed to update vehicle mileage: %w", err)
	}

	log.WithFields(log.Fields{
		"vehicle_id": reading.VehicleID,
		"mileage":    reading.Mileage,
	}).Debug("Applied odometer reading")
	return nil
}
