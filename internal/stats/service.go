package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/vehicle-maintenance/internal/db"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// Service computes the per-user statistics rollup. Every call re-scans the
// collections; nothing is cached or written. The three fetches share no
// transaction, so concurrent writers may be observed at different points
// within one call (eventually-consistent-within-request).
type Service struct {
	vehicles    db.VehicleCollection
	maintenance db.MaintenanceCollection
	reminders   db.ReminderCollection
}

// NewService creates a new statistics service.
func NewService(vehicles db.VehicleCollection, maintenance db.MaintenanceCollection, reminders db.ReminderCollection) *Service {
	return &Service{
		vehicles:    vehicles,
		maintenance: maintenance,
		reminders:   reminders,
	}
}

// UserStatistics assembles the maintenance statistics report for a user.
//
// The vehicle-id set is computed once and scopes both the maintenance and
// reminder fetches. A user with no vehicles gets an all-zero report with a
// nil most-maintained vehicle. Collection failures propagate unchanged;
// malformed reminder data never does, it simply goes uncounted.
func (s *Service) UserStatistics(ctx context.Context, userID string) (*models.StatisticsResponse, error) {
	vehicles, err := s.vehicles.FindVehiclesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vehicles: %w", err)
	}

	vehicleIDs := make([]string, 0, len(vehicles))
	for _, vehicle := range vehicles {
		vehicleIDs = append(vehicleIDs, vehicle.ID.Hex())
	}

	stats := models.UserMaintenanceStats{TotalVehicles: len(vehicleIDs)}

	if len(vehicleIDs) > 0 {
		records, err := s.maintenance.FindMaintenanceByVehicleIDs(ctx, vehicleIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch maintenance records: %w", err)
		}

		summary := Aggregate(records)
		stats.TotalMaintenanceRecords = summary.TotalRecords
		stats.TotalMaintenanceCost = summary.TotalCost
		stats.HighestCostRecord = summary.HighestCost
		stats.MostMaintainedVehicle, err = s.resolveNickname(ctx, summary.MostMaintainedVehicleID)
		if err != nil {
			return nil, err
		}

		reminders, err := s.reminders.FindRemindersByVehicleIDs(ctx, vehicleIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch reminders: %w", err)
		}

		now := time.Now()
		stats.TotalReminders = len(reminders)
		for _, reminder := range reminders {
			switch c := Classify(reminder, now); {
			case c.Overdue:
				stats.OverdueReminderCount++
			case c.Upcoming:
				stats.UpcomingReminderCount++
			}
		}
	}

	return &models.StatisticsResponse{
		Stats:       stats,
		GeneratedAt: time.Now(),
		Message:     "User maintenance stats fetched successfully.",
	}, nil
}

// resolveNickname maps a vehicle id to its nickname. A vehicle deleted
// between the scoping query and this lookup resolves to nil rather than
// failing the whole aggregation.
func (s *Service) resolveNickname(ctx context.Context, vehicleID string) (*string, error) {
	if vehicleID == "" {
		return nil, nil
	}
	vehicle, err := s.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve vehicle nickname: %w", err)
	}
	return &vehicle.Nickname, nil
}
