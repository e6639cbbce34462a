package stages

import (
	"fmt"
	"time"
)

// Bucket key layouts.
const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// DayKey labels the calendar day of t in UTC.
func DayKey(t time.Time) string { return t.UTC().Format(dayLayout) }

// WeekKey labels the ISO week of t in UTC, e.g. "2025-W07".
func WeekKey(t time.Time) string {
	y, w := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, w)
}

// MonthKey labels the calendar month of t in UTC.
func MonthKey(t time.Time) string { return t.UTC().Format(monthLayout) }

// Engagement counts distinct students whose last activity falls inside the
// inclusive period, overall and per day, ISO week and month.
func Engagement(in Inputs) Delta {
	start, end := in.Bounds()

	seen := make(map[string]struct{})
	daily := make(map[string]map[string]struct{})
	weekly := make(map[string]map[string]struct{})
	monthly := make(map[string]map[string]struct{})

	for _, s := range in.Students {
		if s.LastActive == nil {
			continue
		}
		at := *s.LastActive
		if at.Before(start) || at.After(end) {
			continue
		}
		seen[s.ID] = struct{}{}
		addDistinct(daily, DayKey(at), s.ID)
		addDistinct(weekly, WeekKey(at), s.ID)
		addDistinct(monthly, MonthKey(at), s.ID)
	}

	return Delta{
		KeyTotalStudentsEngaged:  len(seen),
		KeyActiveStudentsDaily:   sizes(daily),
		KeyActiveStudentsWeekly:  sizes(weekly),
		KeyActiveStudentsMonthly: sizes(monthly),
	}
}

func addDistinct(buckets map[string]map[string]struct{}, key, id string) {
	set, ok := buckets[key]
	if !ok {
		set = make(map[string]struct{})
		buckets[key] = set
	}
	set[id] = struct{}{}
}

func sizes(buckets map[string]map[string]struct{}) map[string]int {
	out := make(map[string]int, len(buckets))
	for k, set := range buckets {
		out[k] = len(set)
	}
	return out
}
