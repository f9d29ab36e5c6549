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

// ReminderHandler handles maintenance reminder CRUD scoped to the caller's
// vehicles.
type ReminderHandler struct {
	reminderCollection db.ReminderCollection
	vehicleCollection  db.VehicleCollection
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderCollection db.ReminderCollection, vehicleCollection db.VehicleCollection) *ReminderHandler {
	return &ReminderHandler{
		reminderCollection: reminderCollection,
		vehicleCollection:  vehicleCollection,
	}
}

// ReminderCreateRequest is the payload for configuring a reminder. The
// notify-before and estimated-mileage knobs fall back to defaults when
// omitted; explicit zero values are kept.
type ReminderCreateRequest struct {
	VehicleID            string     `json:"vehicle_id"`
	MaintenanceType      string     `json:"maintenance_type"`
	Details              string     `json:"details,omitempty"`
	IntervalMiles        *int       `json:"interval_miles,omitempty"`
	IntervalMonths       *int       `json:"interval_months,omitempty"`
	LastServicedMileage  *int       `json:"last_serviced_mileage,omitempty"`
	LastServicedDate     *time.Time `json:"last_serviced_date,omitempty"`
	NotifyBeforeMiles    *int       `json:"notify_before_miles,omitempty"`
	NotifyBeforeDays     *int       `json:"notify_before_days,omitempty"`
	EstimatedMilesPerMon *int       `json:"estimated_miles_driven_per_month,omitempty"`
	IsActive             *bool      `json:"is_active,omitempty"`
}

// ReminderUpdateRequest carries optional reminder changes; nil fields are
// left untouched.
type ReminderUpdateRequest struct {
	MaintenanceType      *string    `json:"maintenance_type,omitempty"`
	Details              *string    `json:"details,omitempty"`
	IntervalMiles        *int       `json:"interval_miles,omitempty"`
	IntervalMonths       *int       `json:"interval_months,omitempty"`
	LastServicedMileage  *int       `json:"last_serviced_mileage,omitempty"`
	LastServicedDate     *time.Time `json:"last_serviced_date,omitempty"`
	NotifyBeforeMiles    *int       `json:"notify_before_miles,omitempty"`
	NotifyBeforeDays     *int       `json:"notify_before_days,omitempty"`
	EstimatedMilesPerMon *int       `json:"estimated_miles_driven_per_month,omitempty"`
	IsActive             *bool      `json:"is_active,omitempty"`
}

// ReminderUpdateResponse reports a reminder update with before/after data
// and a per-field change map.
type ReminderUpdateResponse struct {
	OldData       models.Reminder `json:"old_data"`
	UpdatedData   models.Reminder `json:"updated_data"`
	Changes       map[string]bool `json:"changes"`
	UpdateMessage string          `json:"update_message"`
}

// Create configures a reminder for one of the caller's vehicles. At least
// one dimension must be fully specified: mileage-based (interval_miles with
// last_serviced_mileage) or time-based (interval_months with
// last_serviced_date). The last serviced mileage may not exceed the
// vehicle's odometer and the last serviced date may not be in the future.
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var createReq ReminderCreateRequest
	if err := json.Unmarshal(body, &createReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if createReq.MaintenanceType == "" {
		http.Error(w, "maintenance_type is required", http.StatusBadRequest)
		return
	}
	// Each interval must come paired with its anchor value.
	mileageConfigured := createReq.IntervalMiles != nil && createReq.LastServicedMileage != nil
	timeConfigured := createReq.IntervalMonths != nil && createReq.LastServicedDate != nil
	if !mileageConfigured && !timeConfigured {
		http.Error(w,
			"You must provide either: (1) a mileage-based reminder (interval_miles and last_serviced_mileage), (2) a time-based reminder (interval_months and last_serviced_date), or (3) both.",
			http.StatusBadRequest)
		return
	}

	vehicle, ok := h.ownedVehicle(w, r, claims.UserID, createReq.VehicleID)
	if !ok {
		return
	}

	if createReq.LastServicedMileage != nil && *createReq.LastServicedMileage > vehicle.Mileage {
		http.Error(w,
			"Last serviced mileage("+strconv.Itoa(*createReq.LastServicedMileage)+") cannot be greater than current vehicle mileage("+strconv.Itoa(vehicle.Mileage)+")",
			http.StatusBadRequest)
		return
	}
	if createReq.LastServicedDate != nil && createReq.LastServicedDate.After(time.Now()) {
		http.Error(w, "Last serviced date cannot be in the future.", http.StatusBadRequest)
		return
	}

	reminder := models.Reminder{
		VehicleID:            createReq.VehicleID,
		MaintenanceType:      createReq.MaintenanceType,
		Details:              createReq.Details,
		IntervalMiles:        createReq.IntervalMiles,
		IntervalMonths:       createReq.IntervalMonths,
		LastServicedMileage:  createReq.LastServicedMileage,
		LastServicedDate:     createReq.LastServicedDate,
		NotifyBeforeMiles:    models.DefaultNotifyBeforeMiles,
		NotifyBeforeDays:     models.DefaultNotifyBeforeDays,
		EstimatedMilesPerMon: models.DefaultEstimatedMilesPerMon,
		IsActive:             true,
	}
	if createReq.NotifyBeforeMiles != nil {
		reminder.NotifyBeforeMiles = *createReq.NotifyBeforeMiles
	}
	if createReq.NotifyBeforeDays != nil {
		reminder.NotifyBeforeDays = *createReq.NotifyBeforeDays
	}
	if createReq.EstimatedMilesPerMon != nil {
		reminder.EstimatedMilesPerMon = *createReq.EstimatedMilesPerMon
	}
	if createReq.IsActive != nil {
		reminder.IsActive = *createReq.IsActive
	}

	created, err := h.reminderCollection.InsertReminder(r.Context(), reminder)
	if err != nil {
		log.WithError(err).Error("Failed to insert reminder")
		http.Error(w, "Failed to create reminder", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// List returns all reminders for the caller's vehicles.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	vehicleIDs, ok := h.userVehicleIDs(w, r, claims.UserID)
	if !ok {
		return
	}

	reminders, err := h.reminderCollection.FindRemindersByVehicleIDs(r.Context(), vehicleIDs)
	if err != nil {
		log.WithError(err).Error("Failed to fetch reminders")
		http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]models.Reminder{"reminders": reminders})
}

// reminderFilterFromQuery builds a bson filter from an enumerated mapping of
// query parameters.
func reminderFilterFromQuery(r *http.Request) (bson.M, error) {
	filter := bson.M{}

	if v := r.URL.Query().Get("vehicle_id"); v != "" {
		filter["vehicle_id"] = v
	}
	for _, field := range []string{"maintenance_type", "details"} {
		if v := r.URL.Query().Get(field); v != "" {
			filter[field] = primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
		}
	}
	for _, field := range []string{
		"interval_miles", "interval_months", "last_serviced_mileage",
		"notify_before_miles", "notify_before_days",
	} {
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

// reminderVehicleScopeFromQuery builds a vehicle filter from the
// vehicle_-prefixed query parameters, narrowing a reminder lookup to
// matching vehicles.
func reminderVehicleScopeFromQuery(r *http.Request) (bson.M, error) {
	scope := bson.M{}

	for param, field := range map[string]string{
		"vehicle_make":     "make",
		"vehicle_model":    "model",
		"vehicle_vin":      "vin",
		"vehicle_nickname": "nickname",
	} {
		if v := r.URL.Query().Get(param); v != "" {
			scope[field] = primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
		}
	}
	if v := r.URL.Query().Get("vehicle_year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("invalid value for filter 'vehicle_year'")
		}
		scope["year"] = n
	}

	return scope, nil
}

// Filter returns the caller's reminders matching the query parameters.
// Reminders filter on their own fields plus vehicle_-prefixed parameters
// that restrict the search to matching vehicles.
func (h *ReminderHandler) Filter(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	filter, err := reminderFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vehicleScope, err := reminderVehicleScopeFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(filter) == 0 && len(vehicleScope) == 0 {
		http.Error(w, "At least one filter parameter must be provided.", http.StatusBadRequest)
		return
	}

	var vehicleIDs []string
	if len(vehicleScope) > 0 {
		vehicles, err := h.vehicleCollection.FindVehiclesFiltered(r.Context(), claims.UserID, vehicleScope)
		if err != nil {
			log.WithError(err).Error("Failed to resolve vehicle scope for reminder filter")
			http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
			return
		}
		vehicleIDs = make([]string, 0, len(vehicles))
		for _, v := range vehicles {
			vehicleIDs = append(vehicleIDs, v.ID.Hex())
		}
	} else {
		vehicleIDs, ok = h.userVehicleIDs(w, r, claims.UserID)
		if !ok {
			return
		}
	}

	reminders, err := h.reminderCollection.FindRemindersFiltered(r.Context(), vehicleIDs, filter)
	if err != nil {
		log.WithError(err).Error("Failed to filter reminders")
		http.Error(w, "Failed to fetch reminders", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]models.Reminder{"reminders": reminders})
}

// Update applies a partial update to one of the caller's reminders. The
// resulting updated_at stamp becomes the classifier's reference date when no
// last service date is recorded.
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	reminderID := r.PathValue("id")

	reminder, ok := h.ownedReminder(w, r, claims.UserID, reminderID)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var updateReq ReminderUpdateRequest
	if err := json.Unmarshal(body, &updateReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	oldData := *reminder
	changes := map[string]bool{
		"maintenance_type": false, "details": false, "interval_miles": false,
		"interval_months": false, "last_serviced_mileage": false,
		"last_serviced_date": false, "notify_before_miles": false,
		"notify_before_days": false, "estimated_miles_driven_per_month": false,
		"is_active": false,
	}

	applyIntPtr := func(field string, target **int, value *int) {
		if value != nil && (*target == nil || **target != *value) {
			*target = value
			changes[field] = true
		}
	}

	if updateReq.MaintenanceType != nil && *updateReq.MaintenanceType != reminder.MaintenanceType {
		reminder.MaintenanceType = *updateReq.MaintenanceType
		changes["maintenance_type"] = true
	}
	if updateReq.Details != nil && *updateReq.Details != reminder.Details {
		reminder.Details = *updateReq.Details
		changes["details"] = true
	}
	applyIntPtr("interval_miles", &reminder.IntervalMiles, updateReq.IntervalMiles)
	applyIntPtr("interval_months", &reminder.IntervalMonths, updateReq.IntervalMonths)
	applyIntPtr("last_serviced_mileage", &reminder.LastServicedMileage, updateReq.LastServicedMileage)
	if updateReq.LastServicedDate != nil &&
		(reminder.LastServicedDate == nil || !updateReq.LastServicedDate.Equal(*reminder.LastServicedDate)) {
		reminder.LastServicedDate = updateReq.LastServicedDate
		changes["last_serviced_date"] = true
	}
	if updateReq.NotifyBeforeMiles != nil && *updateReq.NotifyBeforeMiles != reminder.NotifyBeforeMiles {
		reminder.NotifyBeforeMiles = *updateReq.NotifyBeforeMiles
		changes["notify_before_miles"] = true
	}
	if updateReq.NotifyBeforeDays != nil && *updateReq.NotifyBeforeDays != reminder.NotifyBeforeDays {
		reminder.NotifyBeforeDays = *updateReq.NotifyBeforeDays
		changes["notify_before_days"] = true
	}
	if updateReq.EstimatedMilesPerMon != nil && *updateReq.EstimatedMilesPerMon != reminder.EstimatedMilesPerMon {
		reminder.EstimatedMilesPerMon = *updateReq.EstimatedMilesPerMon
		changes["estimated_miles_driven_per_month"] = true
	}
	if updateReq.IsActive != nil && *updateReq.IsActive != reminder.IsActive {
		reminder.IsActive = *updateReq.IsActive
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
		writeJSON(w, http.StatusOK, ReminderUpdateResponse{
			OldData:       oldData,
			UpdatedData:   oldData,
			Changes:       changes,
			UpdateMessage: "No updates were made to Maintenance Reminder ID " + reminderID + ".",
		})
		return
	}

	if err := h.reminderCollection.UpdateReminder(r.Context(), reminderID, *reminder); err != nil {
		log.WithError(err).Error("Failed to update reminder")
		http.Error(w, "Failed to update reminder", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ReminderUpdateResponse{
		OldData:       oldData,
		UpdatedData:   *reminder,
		Changes:       changes,
		UpdateMessage: "Maintenance Reminder ID " + reminderID + " updated successfully.",
	})
}

// Delete removes one of the caller's reminders.
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	reminderID := r.PathValue("id")

	if _, ok := h.ownedReminder(w, r, claims.UserID, reminderID); !ok {
		return
	}

	if err := h.reminderCollection.DeleteReminder(r.Context(), reminderID); err != nil {
		log.WithError(err).Error("Failed to delete reminder")
		http.Error(w, "Failed to delete reminder", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		ID:      reminderID,
		Message: "Maintenance Reminder ID: " + reminderID + " deleted successfully.",
	})
}

func (h *ReminderHandler) userVehicleIDs(w http.ResponseWriter, r *http.Request, userID string) ([]string, bool) {
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

func (h *ReminderHandler) ownedVehicle(w http.ResponseWriter, r *http.Request, userID, vehicleID string) (*models.Vehicle, bool) {
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

// ownedReminder fetches a reminder and verifies the caller owns the vehicle
// it belongs to.
func (h *ReminderHandler) ownedReminder(w http.ResponseWriter, r *http.Request, userID, reminderID string) (*models.Reminder, bool) {
	reminder, err := h.reminderCollection.FindReminderByID(r.Context(), reminderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Maintenance Reminder not found.", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "Failed to fetch reminder", http.StatusInternalServerError)
		return nil, false
	}

	vehicle, err := h.vehicleCollection.FindVehicleByID(r.Context(), reminder.VehicleID)
	if err != nil || vehicle.UserID != userID {
		http.Error(w, "Not authorized to modify this reminder.", http.StatusForbidden)
		return nil, false
	}
	return reminder, true
}
