package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// VehicleHandler handles vehicle CRUD for the authenticated owner.
type VehicleHandler struct {
	vehicleCollection db.VehicleCollection
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(vehicleCollection db.VehicleCollection) *VehicleHandler {
	return &VehicleHandler{vehicleCollection: vehicleCollection}
}

// VehicleCreateRequest is the payload for registering a vehicle.
type VehicleCreateRequest struct {
	VehicleType       string `json:"vehicle_type"`
	Make              string `json:"make"`
	Model             string `json:"model"`
	Color             string `json:"color"`
	Year              int    `json:"year"`
	Mileage           int    `json:"mileage"`
	VIN               string `json:"vin"`
	LicensePlate      string `json:"license_plate"`
	RegistrationState string `json:"registration_state"`
	FuelType          string `json:"fuel_type"`
	TransmissionType  string `json:"transmission_type"`
	IsActive          bool   `json:"is_active"`
	Nickname          string `json:"nickname"`
}

// VehicleUpdateRequest carries optional vehicle changes; nil fields are left
// untouched.
type VehicleUpdateRequest struct {
	VehicleType       *string `json:"vehicle_type,omitempty"`
	Make              *string `json:"make,omitempty"`
	Model             *string `json:"model,omitempty"`
	Color             *string `json:"color,omitempty"`
	Year              *int    `json:"year,omitempty"`
	Mileage           *int    `json:"mileage,omitempty"`
	VIN               *string `json:"vin,omitempty"`
	LicensePlate      *string `json:"license_plate,omitempty"`
	RegistrationState *string `json:"registration_state,omitempty"`
	FuelType          *string `json:"fuel_type,omitempty"`
	TransmissionType  *string `json:"transmission_type,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
	Nickname          *string `json:"nickname,omitempty"`
}

// VehicleUpdateResponse reports a vehicle update with before/after data and
// a per-field change map.
type VehicleUpdateResponse struct {
	OldData       models.Vehicle  `json:"old_data"`
	UpdatedData   models.Vehicle  `json:"updated_data"`
	Changes       map[string]bool `json:"changes"`
	UpdateMessage string          `json:"update_message"`
}

// Create registers a new vehicle for the caller. VINs are unique across all
// users, nicknames per owner.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var createReq VehicleCreateRequest
	if err := json.Unmarshal(body, &createReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if createReq.VIN == "" {
		http.Error(w, "VIN is required", http.StatusBadRequest)
		return
	}

	if _, err := h.vehicleCollection.FindVehicleByVIN(r.Context(), createReq.VIN); err == nil {
		http.Error(w, createReq.VIN+" already registered.", http.StatusBadRequest)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Failed to check VIN", http.StatusInternalServerError)
		return
	}

	if createReq.Nickname != "" {
		if _, err := h.vehicleCollection.FindVehicleByNickname(r.Context(), claims.UserID, createReq.Nickname); err == nil {
			http.Error(w, "'"+createReq.Nickname+"' is already being used by you.", http.StatusBadRequest)
			return
		} else if !errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Failed to check nickname", http.StatusInternalServerError)
			return
		}
	}

	vehicle, err := h.vehicleCollection.InsertVehicle(r.Context(), models.Vehicle{
		UserID:            claims.UserID,
		VehicleType:       createReq.VehicleType,
		Make:              createReq.Make,
		Model:             createReq.Model,
		Color:             createReq.Color,
		Year:              createReq.Year,
		Mileage:           createReq.Mileage,
		VIN:               createReq.VIN,
		LicensePlate:      createReq.LicensePlate,
		RegistrationState: createReq.RegistrationState,
		FuelType:          createReq.FuelType,
		TransmissionType:  createReq.TransmissionType,
		IsActive:          createReq.IsActive,
		Nickname:          createReq.Nickname,
	})
	if err != nil {
		log.WithError(err).Error("Failed to insert vehicle")
		http.Error(w, "Failed to create vehicle", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, vehicle)
}

// List returns all vehicles owned by the caller.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	vehicles, err := h.vehicleCollection.FindVehiclesByUser(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch vehicles")
		http.Error(w, "Failed to fetch vehicles", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]models.Vehicle{"vehicles": vehicles})
}

// vehicleFilterFromQuery builds a bson filter from an enumerated mapping of
// query parameters. Unknown parameters are ignored; string filters match
// case-insensitive substrings.
func vehicleFilterFromQuery(r *http.Request) (bson.M, error) {
	filter := bson.M{}

	for _, field := range []string{
		"vehicle_type", "make", "model", "color", "vin",
		"license_plate", "registration_state", "fuel_type",
		"transmission_type", "nickname",
	} {
		if v := r.URL.Query().Get(field); v != "" {
			filter[field] = primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
		}
	}

	for _, field := range []string{"year", "mileage"} {
		if v := r.URL.Query().Get(field); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, errors.New("invalid value for filter '" + field + "'")
			}
			filter[field] = n
		}
	}

	if v := r.URL.Query().Get("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid value for filter 'is_active'")
		}
		filter["is_active"] = b
	}

	return filter, nil
}

// Filter returns the caller's vehicles matching the query parameters.
func (h *VehicleHandler) Filter(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	filter, err := vehicleFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(filter) == 0 {
		http.Error(w, "At least one filter parameter must be provided.", http.StatusBadRequest)
		return
	}

	vehicles, err := h.vehicleCollection.FindVehiclesFiltered(r.Context(), claims.UserID, filter)
	if err != nil {
		log.WithError(err).Error("Failed to filter vehicles")
		http.Error(w, "Failed to fetch vehicles", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]models.Vehicle{"vehicles": vehicles})
}

// ownedVehicle fetches a vehicle and verifies the caller owns it. Missing
// and not-owned both surface as 404 so vehicle ids are not probeable.
func (h *VehicleHandler) ownedVehicle(w http.ResponseWriter, r *http.Request, userID, vehicleID string) (*models.Vehicle, bool) {
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

// Update applies a partial update to one of the caller's vehicles and
// reports the old data, updated data, and a per-field change map.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	vehicleID := r.PathValue("id")

	vehicle, ok := h.ownedVehicle(w, r, claims.UserID, vehicleID)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var updateReq VehicleUpdateRequest
	if err := json.Unmarshal(body, &updateReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	oldData := *vehicle
	changes := map[string]bool{
		"vehicle_type": false, "make": false, "model": false, "color": false,
		"year": false, "mileage": false, "vin": false, "license_plate": false,
		"registration_state": false, "fuel_type": false,
		"transmission_type": false, "is_active": false, "nickname": false,
	}

	applyString := func(field string, target *string, value *string) {
		if value != nil && *value != *target {
			*target = *value
			changes[field] = true
		}
	}
	applyInt := func(field string, target *int, value *int) {
		if value != nil && *value != *target {
			*target = *value
			changes[field] = true
		}
	}

	applyString("vehicle_type", &vehicle.VehicleType, updateReq.VehicleType)
	applyString("make", &vehicle.Make, updateReq.Make)
	applyString("model", &vehicle.Model, updateReq.Model)
	applyString("color", &vehicle.Color, updateReq.Color)
	applyInt("year", &vehicle.Year, updateReq.Year)
	applyInt("mileage", &vehicle.Mileage, updateReq.Mileage)
	applyString("vin", &vehicle.VIN, updateReq.VIN)
	applyString("license_plate", &vehicle.LicensePlate, updateReq.LicensePlate)
	applyString("registration_state", &vehicle.RegistrationState, updateReq.RegistrationState)
	applyString("fuel_type", &vehicle.FuelType, updateReq.FuelType)
	applyString("transmission_type", &vehicle.TransmissionType, updateReq.TransmissionType)
	applyString("nickname", &vehicle.Nickname, updateReq.Nickname)
	if updateReq.IsActive != nil && *updateReq.IsActive != vehicle.IsActive {
		vehicle.IsActive = *updateReq.IsActive
		changes["is_active"] = true
	}

	anyChanged := false
	for _, wasChanged := range changes {
		if wasChanged {
			anyChanged = true
			break
		}
	}
	if !anyChanged {
		writeJSON(w, http.StatusOK, VehicleUpdateResponse{
			OldData:       oldData,
			UpdatedData:   oldData,
			Changes:       changes,
			UpdateMessage: "No updates were made to vehicle ID " + vehicleID + ".",
		})
		return
	}

	if err := h.vehicleCollection.UpdateVehicle(r.Context(), vehicleID, *vehicle); err != nil {
		log.WithError(err).Error("Failed to update vehicle")
		http.Error(w, "Failed to update vehicle", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, VehicleUpdateResponse{
		OldData:       oldData,
		UpdatedData:   *vehicle,
		Changes:       changes,
		UpdateMessage: "Vehicle ID " + vehicleID + " updated successfully.",
	})
}

// Delete removes one of the caller's vehicles.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	vehicleID := r.PathValue("id")

	if _, ok := h.ownedVehicle(w, r, claims.UserID, vehicleID); !ok {
		return
	}

	if err := h.vehicleCollection.DeleteVehicle(r.Context(), vehicleID); err != nil {
		log.WithError(err).Error("Failed to delete vehicle")
		http.Error(w, "Failed to delete vehicle", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		ID:      vehicleID,
		Message: "Vehicle ID: " + vehicleID + " deleted successfully.",
	})
}
