package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/vehicle-maintenance/internal/models"
	"github.com/ukydev/vehicle-maintenance/internal/stats"
)

func TestStatisticsHandler_Get(t *testing.T) {
	userID := primitive.NewObjectID().Hex()

	t.Run("returns computed report", func(t *testing.T) {
		mockVehicles := new(MockVehicleCollection)
		mockRecords := new(MockMaintenanceCollection)
		mockReminders := new(MockReminderCollection)
		handler := NewStatisticsHandler(stats.NewService(mockVehicles, mockRecords, mockReminders))

		vehicle := models.Vehicle{ID: primitive.NewObjectID(), UserID: userID, Nickname: "Daily Driver"}
		mockVehicles.On("FindVehiclesByUser", mock.Anything, userID).Return([]models.Vehicle{vehicle}, nil)
		mockRecords.On("FindMaintenanceByVehicleIDs", mock.Anything, []string{vehicle.ID.Hex()}).
			Return([]models.Maintenance{{VehicleID: vehicle.ID.Hex(), Cost: floatPtr(89.65)}}, nil)
		mockVehicles.On("FindVehicleByID", mock.Anything, vehicle.ID.Hex()).Return(&vehicle, nil)
		mockReminders.On("FindRemindersByVehicleIDs", mock.Anything, []string{vehicle.ID.Hex()}).
			Return([]models.Reminder{}, nil)

		req := withClaims(httptest.NewRequest("GET", "/api/statistics", nil), userID)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response models.StatisticsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Stats.TotalVehicles)
		assert.Equal(t, 1, response.Stats.TotalMaintenanceRecords)
		assert.InDelta(t, 89.65, response.Stats.TotalMaintenanceCost, 0.001)
		if assert.NotNil(t, response.Stats.MostMaintainedVehicle) {
			assert.Equal(t, "Daily Driver", *response.Stats.MostMaintainedVehicle)
		}
		assert.Equal(t, "User maintenance stats fetched successfully.", response.Message)
	})

	t.Run("missing claims", func(t *testing.T) {
		mockVehicles := new(MockVehicleCollection)
		mockRecords := new(MockMaintenanceCollection)
		mockReminders := new(MockReminderCollection)
		handler := NewStatisticsHandler(stats.NewService(mockVehicles, mockRecords, mockReminders))

		req := httptest.NewRequest("GET", "/api/statistics", nil)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockVehicles.AssertNotCalled(t, "FindVehiclesByUser", mock.Anything, mock.Anything)
	})

	t.Run("collection failure surfaces 500", func(t *testing.T) {
		mockVehicles := new(MockVehicleCollection)
		mockRecords := new(MockMaintenanceCollection)
		mockReminders := new(MockReminderCollection)
		handler := NewStatisticsHandler(stats.NewService(mockVehicles, mockRecords, mockReminders))

		mockVehicles.On("FindVehiclesByUser", mock.Anything, userID).Return(nil, assert.AnError)

		req := withClaims(httptest.NewRequest("GET", "/api/statistics", nil), userID)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to fetch statistics")
	})
}
