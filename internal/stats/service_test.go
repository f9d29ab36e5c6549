package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// MockVehicleCollection is a mock implementation of db.VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error) {
	args := m.Called(ctx, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehiclesByUser(ctx context.Context, userID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehiclesFiltered(ctx context.Context, userID string, filter bson.M) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	args := m.Called(ctx, vin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByNickname(ctx context.Context, userID, nickname string) (*models.Vehicle, error) {
	args := m.Called(ctx, userID, nickname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	args := m.Called(ctx, id, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) UpdateVehicleMileage(ctx context.Context, id string, mileage int) error {
	args := m.Called(ctx, id, mileage)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMaintenanceCollection is a mock implementation of db.MaintenanceCollection
type MockMaintenanceCollection struct {
	mock.Mock
}

func (m *MockMaintenanceCollection) InsertMaintenance(ctx context.Context, record models.Maintenance) (*models.Maintenance, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Maintenance), args.Error(1)
}

func (m *MockMaintenanceCollection) FindMaintenanceByVehicleIDs(ctx context.Context, vehicleIDs []string) ([]models.Maintenance, error) {
	args := m.Called(ctx, vehicleIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Maintenance), args.Error(1)
}

func (m *MockMaintenanceCollection) FindMaintenanceFiltered(ctx context.Context, vehicleIDs []string, filter bson.M) ([]models.Maintenance, error) {
	args := m.Called(ctx, vehicleIDs, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Maintenance), args.Error(1)
}

func (m *MockMaintenanceCollection) FindMaintenanceByID(ctx context.Context, id string) (*models.Maintenance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Maintenance), args.Error(1)
}

func (m *MockMaintenanceCollection) UpdateMaintenance(ctx context.Context, id string, record models.Maintenance) error {
	args := m.Called(ctx, id, record)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) DeleteMaintenance(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReminderCollection is a mock implementation of db.ReminderCollection
type MockReminderCollection struct {
	mock.Mock
}

func (m *MockReminderCollection) InsertReminder(ctx context.Context, reminder models.Reminder) (*models.Reminder, error) {
	args := m.Called(ctx, reminder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reminder), args.Error(1)
}

func (m *MockReminderCollection) FindRemindersByVehicleIDs(ctx context.Context, vehicleIDs []string) ([]models.Reminder, error) {
	args := m.Called(ctx, vehicleIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reminder), args.Error(1)
}

func (m *MockReminderCollection) FindRemindersFiltered(ctx context.Context, vehicleIDs []string, filter bson.M) ([]models.Reminder, error) {
	args := m.Called(ctx, vehicleIDs, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reminder), args.Error(1)
}

func (m *MockReminderCollection) FindReminderByID(ctx context.Context, id string) (*models.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reminder), args.Error(1)
}

func (m *MockReminderCollection) UpdateReminder(ctx context.Context, id string, reminder models.Reminder) error {
	args := m.Called(ctx, id, reminder)
	return args.Error(0)
}

func (m *MockReminderCollection) DeleteReminder(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService() (*Service, *MockVehicleCollection, *MockMaintenanceCollection, *MockReminderCollection) {
	vehicles := new(MockVehicleCollection)
	maintenance := new(MockMaintenanceCollection)
	reminders := new(MockReminderCollection)
	return NewService(vehicles, maintenance, reminders), vehicles, maintenance, reminders
}

func TestUserStatistics_NoVehicles(t *testing.T) {
	service, vehicles, _, _ := newTestService()

	vehicles.On("FindVehiclesByUser", mock.Anything, "user1").Return([]models.Vehicle{}, nil)

	report, err := service.UserStatistics(context.Background(), "user1")
	assert.NoError(t, err)
	assert.Equal(t, 0, report.Stats.TotalVehicles)
	assert.Equal(t, 0, report.Stats.TotalMaintenanceRecords)
	assert.Equal(t, 0.0, report.Stats.TotalMaintenanceCost)
	assert.Equal(t, 0, report.Stats.TotalReminders)
	assert.Nil(t, report.Stats.MostMaintainedVehicle)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestUserStatistics_FullReport(t *testing.T) {
	service, vehicles, maintenance, reminders := newTestService()

	now := time.Now()
	v1 := models.Vehicle{ID: primitive.NewObjectID(), UserID: "user1", Nickname: "Big Bertha"}
	v2 := models.Vehicle{ID: primitive.NewObjectID(), UserID: "user1", Nickname: "Rust Bucket"}
	vehicleIDs := []string{v1.ID.Hex(), v2.ID.Hex()}

	pastService := now.AddDate(0, -6, 0)
	records := []models.Maintenance{
		{VehicleID: v1.ID.Hex(), Cost: floatPtr(89.65), ServicedAt: &pastService},
		{VehicleID: v2.ID.Hex(), Cost: floatPtr(200.45)},
	}

	upcomingService := now.AddDate(0, 0, -30)
	staleService := now.AddDate(0, 0, -200)
	reminderSet := []models.Reminder{
		{VehicleID: v1.ID.Hex(), IntervalMonths: intPtr(6), LastServicedDate: &upcomingService, NotifyBeforeDays: 14},
		{VehicleID: v2.ID.Hex(), IntervalMonths: intPtr(6), LastServicedDate: &staleService, NotifyBeforeDays: 14},
	}

	vehicles.On("FindVehiclesByUser", mock.Anything, "user1").Return([]models.Vehicle{v1, v2}, nil)
	maintenance.On("FindMaintenanceByVehicleIDs", mock.Anything, vehicleIDs).Return(records, nil)
	vehicles.On("FindVehicleByID", mock.Anything, v1.ID.Hex()).Return(&v1, nil)
	reminders.On("FindRemindersByVehicleIDs", mock.Anything, vehicleIDs).Return(reminderSet, nil)

	report, err := service.UserStatistics(context.Background(), "user1")
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Stats.TotalVehicles)
	assert.Equal(t, 2, report.Stats.TotalMaintenanceRecords)
	assert.InDelta(t, 290.10, report.Stats.TotalMaintenanceCost, 0.001)
	assert.InDelta(t, 200.45, report.Stats.HighestCostRecord, 0.001)
	assert.Equal(t, 2, report.Stats.TotalReminders)
	assert.Equal(t, 1, report.Stats.UpcomingReminderCount)
	assert.Equal(t, 1, report.Stats.OverdueReminderCount)
	// record-count tie resolves to the first vehicle's records in the scan
	if assert.NotNil(t, report.Stats.MostMaintainedVehicle) {
		assert.Equal(t, "Big Bertha", *report.Stats.MostMaintainedVehicle)
	}
	assert.Equal(t, "User maintenance stats fetched successfully.", report.Message)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestUserStatistics_MileageOnlyOverdue(t *testing.T) {
	service, vehicles, maintenance, reminders := newTestService()

	now := time.Now()
	v1 := models.Vehicle{ID: primitive.NewObjectID(), UserID: "user1", Nickname: "Commuter"}
	vehicleIDs := []string{v1.ID.Hex()}

	// Time branch says upcoming for months, but the estimated mileage passes
	// the notify threshold on its own.
	ref := now.AddDate(0, 0, -30)
	reminderSet := []models.Reminder{
		{
			VehicleID:            v1.ID.Hex(),
			IntervalMonths:       intPtr(12),
			IntervalMiles:        intPtr(1000),
			LastServicedMileage:  intPtr(42000),
			LastServicedDate:     &ref,
			NotifyBeforeDays:     14,
			NotifyBeforeMiles:    500,
			EstimatedMilesPerMon: 2000,
		},
	}

	vehicles.On("FindVehiclesByUser", mock.Anything, "user1").Return([]models.Vehicle{v1}, nil)
	maintenance.On("FindMaintenanceByVehicleIDs", mock.Anything, vehicleIDs).Return([]models.Maintenance{}, nil)
	reminders.On("FindRemindersByVehicleIDs", mock.Anything, vehicleIDs).Return(reminderSet, nil)

	report, err := service.UserStatistics(context.Background(), "user1")
	assert.NoError(t, err)
	assert.Equal(t, 0, report.Stats.UpcomingReminderCount)
	assert.Equal(t, 1, report.Stats.OverdueReminderCount)
}

func TestUserStatistics_VehicleDeletedDuringQuery(t *testing.T) {
	service, vehicles, maintenance, reminders := newTestService()

	v1 := models.Vehicle{ID: primitive.NewObjectID(), UserID: "user1"}
	vehicleIDs := []string{v1.ID.Hex()}

	vehicles.On("FindVehiclesByUser", mock.Anything, "user1").Return([]models.Vehicle{v1}, nil)
	maintenance.On("FindMaintenanceByVehicleIDs", mock.Anything, vehicleIDs).
		Return([]models.Maintenance{{VehicleID: v1.ID.Hex(), Cost: floatPtr(10)}}, nil)
	vehicles.On("FindVehicleByID", mock.Anything, v1.ID.Hex()).Return(nil, db.ErrNotFound)
	reminders.On("FindRemindersByVehicleIDs", mock.Anything, vehicleIDs).Return([]models.Reminder{}, nil)

	report, err := service.UserStatistics(context.Background(), "user1")
	assert.NoError(t, err)
	assert.Nil(t, report.Stats.MostMaintainedVehicle)
	assert.Equal(t, 1, report.Stats.TotalMaintenanceRecords)
}

func TestUserStatistics_CollectionErrorPropagates(t *testing.T) {
	service, vehicles, _, _ := newTestService()

	vehicles.On("FindVehiclesByUser", mock.Anything, "user1").Return(nil, errors.New("connection reset"))

	report, err := service.UserStatistics(context.Background(), "user1")
	assert.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "connection reset")
}
