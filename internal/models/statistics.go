package models

import "time"

// UserMaintenanceStats is the per-user statistics rollup. It is computed
// fresh on every query and never persisted.
type UserMaintenanceStats struct {
	TotalVehicles           int      `json:"total_amount_of_vehicles"`
	TotalMaintenanceRecords int      `json:"total_maintenance_records"`
	TotalMaintenanceCost    float64  `json:"total_maintenance_cost"`
	TotalReminders          int      `json:"total_maintenance_reminders"`
	UpcomingReminderCount   int      `json:"upcoming_reminder_count"`
	OverdueReminderCount    int      `json:"overdue_reminder_count"`
	HighestCostRecord       float64  `json:"highest_cost_maintenance_record"`
	MostMaintainedVehicle   *string  `json:"most_maintained_vehicle"`
}

// StatisticsResponse wraps the rollup with its generation instant.
type StatisticsResponse struct {
	Stats       UserMaintenanceStats `json:"stats"`
	GeneratedAt time.Time            `json:"generated_at"`
	Message     string               `json:"message"`
}
