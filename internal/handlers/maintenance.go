package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// MaintenanceHandler handles maintenance record CRUD scoped to the caller's
// vehicles.
type MaintenanceHandler struct {
	maintenanceCollection db.MaintenanceCollection
	vehicleCollection     db.VehicleCollection
}

// NewMaintenanceHandler creates a new maintenance record handler
func NewMaintenanceHandler(maintenanceCollection db.MaintenanceCollection, vehicleCollection db.VehicleCollection) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceCollection: maintenanceCollection,
		vehicleCollection:     vehicleCollection,
	}
}

// MaintenanceCreateRequest is the payload for logging a maintenance record.
type MaintenanceCreateRequest struct {
	VehicleID           string     `json:"vehicle_id"`
	MaintenanceProvider string     `json:"maintenance_provider"`
	MaintenanceType     string     `json:"maintenance_type"`
	Description         string     `json:"description"`
	Mileage             int        `json:"mileage"`
	Cost                *float64   `json:"cost,omitempty"`
	ServicedAt          *time.Time `json:"serviced_at,omitempty"`
}

// MaintenanceUpdateRequest carries optional record changes; nil fields are
// left untouched.
type MaintenanceUpdateRequest struct {
	MaintenanceProvider *string    `json:"maintenance_provider,omitempty"`
	MaintenanceType     *string    `json:"maintenance_type,omitempty"`
	Description         *string    `json:"description,omitempty"`
	Mileage             *int       `json:"mileage,omitempty"`
	Cost                *float64   `json:"cost,omitempty"`
	ServicedAt          *time.Time `json:"serviced_at,omitempty"`
}

// MaintenanceUpdateResponse reports a record update with before/after data
// and a per-field change map.
type MaintenanceUpdateResponse struct {
	OldData       models.Maintenance `json:"old_data"`
	UpdatedData   models.Maintenance `json:"updated_data"`
	Changes       map[string]bool    `json:"changes"`
	UpdateMessage string             `json:"update_message"`
}

// Create logs a maintenance record against one of the caller's vehicles.
// The record mileage may not be below the vehicle's odometer; a higher
// value advances the odometer.
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var createReq MaintenanceCreateRequest
	if err := json.Unmarshal(body, &createReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	vehicle, ok := h.ownedVehicle(w, r, claims.UserID, createReq.VehicleID)
	if !ok {
		return
	}

	if createReq.Mileage < vehicle.Mileage {
		http.Error(w,
			"Maintenance mileage("+strconv.Itoa(createReq.Mileage)+") cannot be less than current vehicle mileage("+strconv.Itoa(vehicle.Mileage)+")",
			http.StatusBadRequest)
		return
	}

	if createReq.Mileage > vehicle.Mileage {
		if err := h.vehicleCollection.UpdateVehicleMileage(r.Context(), createReq.VehicleID, createReq.Mileage); err != nil {
			log.WithError(err).Error("Failed to advance vehicle mileage")
			http.Error(w, "Failed to update vehicle mileage", http.StatusInternalServerError)
			return
		}
	}

	record, err := h.maintenanceCollection.InsertMaintenance(r.Context(), models.Maintenance{
		VehicleID:           createReq.VehicleID,
		MaintenanceProvider: createReq.MaintenanceProvider,
		MaintenanceType:     createReq.MaintenanceType,
		Description:         createReq.Description,
		Mileage:             createReq.Mileage,
		Cost:                createReq.Cost,
		ServicedAt:          createReq.ServicedAt,
	})
	if err != nil {
		log.WithError(err).Error("Failed to insert maintenance record")
		http.Error(w, "Failed to create maintenance record", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// List returns all maintenance records for the caller's vehicles.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	vehicleIDs, ok := h.userVehicleIDs(w, r, claims.UserID)
	if !ok {
		return
	}

	records, err := h.maintenanceCollection.FindMaintenanceByVehicleIDs(r.Context(), vehicleIDs)
	if err != nil {
		log.WithError(err).Error("Failed to fetch maintenance records")
		http.Error(w, "Failed to fetch maintenance records", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]models.Maintenance{"maintenance": records})
}

// maintenanceFilterFromQuery builds a bson filter from an enumerated mapping
// of query parameters.
func maintenanceFilterFromQuery(r *http.Request) (bson.M, error) {
	filter := bson.M{}

	for _, field := range []string{"vehicle_id", "maintenance_provider", "maintenance_type", "description"} {
		if v := r.URL.Query().Get(field); v != "" {
			if field == "vehicle_id" {
				filter[field] = v
			} else {
				filter[field] = primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
			}
		}
	}

	if v := r.URL.Query().Get("mileage"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("invalid value for filter 'mileage'")
		}
		filter["mileage"] = n
	}

	if v := r.URL.Query().Get("cost"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("invalid value for filter 'cost'")
		}
		filter["cost"] = f
	}

	return filter, nil
}

// Filter returns the caller's maintenance records matching the query
// parameters.
func (h *MaintenanceHandler) Filter(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	filter, err := maintenanceFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(filter) == 0 {
		http.Error(w, "At least one filter parameter must be provided.", http.StatusBadRequest)
		return
	}

	vehicleIDs, ok := h.userVehicleIDs(w, r, claims.UserID)
	if !ok {
		return
	}

	records, err := h.maintenanceCollection.FindMaintenanceFiltered(r.Context(), vehicleIDs, filter)
	if err != nil {
		log.WithError(err).Error("Failed to filter maintenance records")
		http.Error(w, "Failed to fetch maintenance records", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]models.Maintenance{"maintenance": records})
}

// Update applies a partial update to one of the caller's maintenance
// records.
func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	recordID := r.PathValue("id")

	record, ok := h.ownedRecord(w, r, claims.UserID, recordID)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var updateReq MaintenanceUpdateRequest
	if err := json.Unmarshal(body, &updateReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	oldData := *record
	changes := map[string]bool{
		"maintenance_provider": false, "maintenance_type": false,
		"description": false, "mileage": false, "cost": false,
		"serviced_at": false,
	}

	if updateReq.MaintenanceProvider != nil && *updateReq.MaintenanceProvider != record.MaintenanceProvider {
		record.MaintenanceProvider = *updateReq.MaintenanceProvider
		changes["maintenance_provider"] = true
	}
	if updateReq.MaintenanceType != nil && *updateReq.MaintenanceType != record.MaintenanceType {
		record.MaintenanceType = *updateReq.MaintenanceType
		changes["maintenance_type"] = true
	}
	if updateReq.Description != nil && *updateReq.Description != record.Description {
		record.Description = *updateReq.Description
		changes["description"] = true
	}
	if updateReq.Mileage != nil && *updateReq.Mileage != record.Mileage {
		record.Mileage = *updateReq.Mileage
		changes["mileage"] = true
	}
	if updateReq.Cost != nil && (record.Cost == nil || *updateReq.Cost != *record.Cost) {
		record.Cost = updateReq.Cost
		changes["cost"] = true
	}
	if updateReq.ServicedAt != nil && (record.ServicedAt == nil || !updateReq.ServicedAt.Equal(*record.ServicedAt)) {
		record.ServicedAt = updateReq.ServicedAt
		changes["serviced_at"] = true
	}

	anyChanged := false
	for _, wasChanged := range changes {
		if wasChanged {
			anyChanged = true
			break
		}
	}
	if !anyChanged {
		writeJSON(w, http.StatusOK, MaintenanceUpdateResponse{
			OldData:       oldData,
			UpdatedData:   oldData,
			Changes:       changes,
			UpdateMessage: "No updates were made to Maintenance Record ID " + recordID + ".",
		})
		return
	}

	if err := h.maintenanceCollection.UpdateMaintenance(r.Context(), recordID, *record); err != nil {
		log.WithError(err).Error("Failed to update maintenance record")
		http.Error(w, "Failed to update maintenance record", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, MaintenanceUpdateResponse{
		OldData:       oldData,
		UpdatedData:   *record,
		Changes:       changes,
		UpdateMessage: "Maintenance Record ID " + recordID + " updated successfully.",
	})
}

// Delete removes one of the caller's maintenance records.
func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	recordID := r.PathValue("id")

	if _, ok := h.ownedRecord(w, r, claims.UserID, recordID); !ok {
		return
	}

	if err := h.maintenanceCollection.DeleteMaintenance(r.Context(), recordID); err != nil {
		log.WithError(err).Error("Failed to delete maintenance record")
		http.Error(w, "Failed to delete maintenance record", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		ID:      recordID,
		Message: "Maintenance Record ID: " + recordID + " deleted successfully.",
	})
}

// userVehicleIDs resolves the caller's vehicle-id set, the scoping boundary
// for every record query.
func (h *MaintenanceHandler) userVehicleIDs(w http.ResponseWriter, r *http.Request, userID string) ([]string, bool) {
	vehicles, err := h.vehicleCollection.FindVehiclesByUser(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch vehicles")
		http.Error(w, "Failed to fetch vehicles", http.StatusInternalServerError)
		return nil, false
	}
	ids := make([]string, 0, len(vehicles))
	for _, vehicle := range vehicles {
		ids = append(ids, vehicle.ID.Hex())
	}
	return ids, true
}

// ownedVehicle fetches a vehicle and verifies ownership.
func (h *MaintenanceHandler) ownedVehicle(w http.ResponseWriter, r *http.Request, userID, vehicleID string) (*models.Vehicle, bool) {
	vehicle, err := h.vehicleCollection.FindVehicleByID(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle ID "+vehicleID+" not found or not owned by you.", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "Failed to fetch vehicle", http.StatusInternalServerError)
		return nil, false
	}
	if vehicle.UserID != userID {
		http.Error(w, "Vehicle ID "+vehicleID+" not found or not owned by you.", http.StatusNotFound)
		return nil, false
	}
	return vehicle, true
}

// ownedRecord fetches a maintenance record and verifies the caller owns the
// vehicle it belongs to.
func (h *MaintenanceHandler) ownedRecord(w http.ResponseWriter, r *http.Request, userID, recordID string) (*models.Maintenance, bool) {
	record, err := h.maintenanceCollection.FindMaintenanceByID(r.Context(), recordID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Maintenance record not found.", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "Failed to fetch maintenance record", http.StatusInternalServerError)
		return nil, false
	}

	vehicle, err := h.vehicleCollection.FindVehicleByID(r.Context(), record.VehicleID)
	if err != nil || vehicle.UserID != userID {
		http.Error(w, "Not authorized to modify this record.", http.StatusForbidden)
		return nil, false
	}
	return record, true
}
