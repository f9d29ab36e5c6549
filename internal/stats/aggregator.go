package stats

import "github.com/ukydev/vehicle-maintenance/internal/models"

// MaintenanceSummary aggregates a set of maintenance records.
type MaintenanceSummary struct {
	TotalRecords            int
	TotalCost               float64
	HighestCost             float64
	MostMaintainedVehicleID string
}

// Aggregate scans maintenance records and computes totals.
//
// Records without a cost contribute zero to TotalCost and are skipped for
// HighestCost; an input with no costed records yields 0.0 rather than an
// error, since the caller expects an always-present numeric field.
//
// MostMaintainedVehicleID is the vehicle with the most records. A tie is
// broken by first-encountered order in the input sequence. That is an
// arbitrary resolution inherited from the query's sort order, not a
// correctness guarantee.
func Aggregate(records []models.Maintenance) MaintenanceSummary {
	summary := MaintenanceSummary{TotalRecords: len(records)}

	counts := make(map[string]int)
	var seenOrder []string

	for _, record := range records {
		if record.Cost != nil {
			summary.TotalCost += *record.Cost
			if *record.Cost > summary.HighestCost {
				summary.HighestCost = *record.Cost
			}
		}

		if _, seen := counts[record.VehicleID]; !seen {
			seenOrder = append(seenOrder, record.VehicleID)
		}
		counts[record.VehicleID]++
	}

	best := 0
	for _, vehicleID := range seenOrder {
		if counts[vehicleID] > best {
			best = counts[vehicleID]
			summary.MostMaintainedVehicleID = vehicleID
		}
	}
	return summary
}
