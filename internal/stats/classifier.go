package stats

import (
	"time"

	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// A month is treated as a fixed 30-day unit for both due-date projection and
// elapsed-time estimation. Calendar-accurate month lengths would shift
// classification outcomes near interval boundaries.
const daysPerMonth = 30

// Classification is the due state of a single reminder. At most one flag is
// set: overdue takes precedence when both projections fire.
type Classification struct {
	Upcoming bool
	Overdue  bool
}

// Classify computes the due state of a reminder at the given instant.
//
// Two independent projections are evaluated from the reminder's reference
// date (last service date, else last update, else creation):
//
//   - time-based: configured when IntervalMonths is set and non-zero. The
//     service is due IntervalMonths*30 days after the reference date, and
//     enters the notify window NotifyBeforeDays before that.
//   - mileage-based: configured when LastServicedMileage, a non-zero
//     IntervalMiles, and a non-zero estimated monthly mileage are all
//     present. Miles driven since the reference date are estimated from the
//     elapsed time, and compared against the notify-before threshold.
//
// A zero interval disables its projection. Reminders with no configured
// projection classify as neither upcoming nor overdue; Classify never fails
// on partial data.
func Classify(reminder models.Reminder, now time.Time) Classification {
	var c Classification
	ref := reminder.ReferenceDate()

	if reminder.IntervalMonths != nil && *reminder.IntervalMonths != 0 {
		serviceDueDate := ref.Add(time.Duration(*reminder.IntervalMonths) * daysPerMonth * 24 * time.Hour)
		notifyBeforeDate := serviceDueDate.Add(-time.Duration(reminder.NotifyBeforeDays) * 24 * time.Hour)

		if !now.Before(notifyBeforeDate) {
			c.Overdue = true
		} else {
			c.Upcoming = true
		}
	}

	if reminder.LastServicedMileage != nil &&
		reminder.IntervalMiles != nil && *reminder.IntervalMiles != 0 &&
		reminder.EstimatedMilesPerMon != 0 {
		serviceMileageDue := *reminder.LastServicedMileage + *reminder.IntervalMiles
		notifyBeforeMileage := serviceMileageDue - reminder.NotifyBeforeMiles

		monthsElapsed := now.Sub(ref).Hours() / 24 / daysPerMonth
		estimatedMilesDriven := float64(reminder.EstimatedMilesPerMon) * monthsElapsed

		if estimatedMilesDriven+float64(*reminder.LastServicedMileage) >= float64(notifyBeforeMileage) {
			c.Overdue = true
		} else {
			c.Upcoming = true
		}
	}

	// Overdue dominates: a reminder never counts in both buckets.
	if c.Overdue {
		c.Upcoming = false
	}
	return c
}
