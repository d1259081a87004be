// Package services hosts the background processors that keep the table
// moving without anyone at the keyboard: materializing recurrence rules
// and pushing snapshots to the sheet.
package services

import (
	"fmt"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
)

// DuenessChecker decides whether a recurrence rule should fire. Each
// cadence has its own implementation.
type DuenessChecker interface {
	// IsDue returns true if the rule should be applied given when it last
	// ran and the current time.
	IsDue(lastApplied, now time.Time, startDate core.Date) bool
}

// DailyChecker fires once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastApplied, now time.Time, _ core.Date) bool {
	if lastApplied.IsZero() {
		return true
	}
	return lastApplied.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker fires when 7 or more days have passed since the last run.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastApplied, now time.Time, _ core.Date) bool {
	if lastApplied.IsZero() {
		return true
	}
	daysSince := now.Sub(lastApplied).Hours() / 24
	return daysSince >= 7
}

// MonthlyChecker fires in a new month once the target day is reached.
// The target day comes from the rule's start date and clamps to the last
// day of short months, so a rule anchored on the 31st fires on Feb 28/29.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastApplied, now time.Time, startDate core.Date) bool {
	if lastApplied.IsZero() {
		return true
	}

	// Already applied this month?
	if lastApplied.Year() == now.Year() && lastApplied.Month() == now.Month() {
		return false
	}

	targetDay := startDate.Day()
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}

	return now.Day() >= targetDay
}

// YearlyChecker fires in a new year once the target month and day are
// reached, with the same short-month clamping as MonthlyChecker.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastApplied, now time.Time, startDate core.Date) bool {
	if lastApplied.IsZero() {
		return true
	}

	// Already applied this year?
	if lastApplied.Year() == now.Year() {
		return false
	}

	targetMonth := int(startDate.Month())
	targetDay := startDate.Day()

	if int(now.Month()) < targetMonth {
		return false
	}

	if int(now.Month()) == targetMonth {
		lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if targetDay > lastDayOfMonth {
			targetDay = lastDayOfMonth
		}
		return now.Day() >= targetDay
	}

	return true
}

var duenessStrategies = map[core.Repetition]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a cadence, or an error for an
// unknown one.
func GetDuenessChecker(every core.Repetition) (DuenessChecker, error) {
	checker, ok := duenessStrategies[every]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", every)
	}
	return checker, nil
}

// RegisterDuenessChecker registers a checker for a new cadence.
func RegisterDuenessChecker(every core.Repetition, checker DuenessChecker) {
	duenessStrategies[every] = checker
}
