// Package schedule decides when newsletters are generated and sent, and runs
// the recurring batch jobs.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/creatorpulse/server/internal/models"
)

// Due reports whether a user's delivery slot matches the given instant. The
// check is hour-granular: a runner that fires once per hour hits each slot
// exactly once.
//
// Biweekly delivery approximates "every other week" by calendar position: the
// weekly slot fires only in even weeks-of-month (days 8-14 and 22-28). Monthly
// delivery fires on the first of the month.
func Due(prefs models.Preferences, now time.Time) bool {
	prefs = withDefaults(prefs)

	if now.Hour() != deliveryHour(prefs.DeliveryTime) {
		return false
	}

	switch prefs.DeliveryFrequency {
	case models.FrequencyDaily:
		return true
	case models.FrequencyWeekly:
		return weekdayMatches(prefs.DeliveryDay, now)
	case models.FrequencyBiweekly:
		weekOfMonth := (now.Day()-1)/7 + 1
		return weekdayMatches(prefs.DeliveryDay, now) && weekOfMonth%2 == 0
	case models.FrequencyMonthly:
		return now.Day() == 1
	default:
		return false
	}
}

func withDefaults(prefs models.Preferences) models.Preferences {
	def := models.DefaultPreferences()
	if prefs.DeliveryFrequency == "" {
		prefs.DeliveryFrequency = def.DeliveryFrequency
	}
	if prefs.DeliveryDay == "" {
		prefs.DeliveryDay = def.DeliveryDay
	}
	if prefs.DeliveryTime == "" {
		prefs.DeliveryTime = def.DeliveryTime
	}
	return prefs
}

// deliveryHour parses the hour out of an "HH:MM" slot, falling back to 8
// when the value is malformed.
func deliveryHour(deliveryTime string) int {
	parts := strings.SplitN(deliveryTime, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 8
	}
	return hour
}

func weekdayMatches(deliveryDay string, now time.Time) bool {
	return strings.EqualFold(deliveryDay, now.Weekday().String())
}
