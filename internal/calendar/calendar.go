// Package calendar holds the pure date arithmetic behind the week view.
// All functions work on the host's local wall clock; minute arithmetic is
// nominal, without daylight-saving adjustment.
package calendar

import (
	"fmt"
	"time"
)

// Danish short names used by the labels. Fixed tables, not locale lookup.
var (
	weekdayShort = [7]string{"søn", "man", "tir", "ons", "tor", "fre", "lør"}
	monthShort   = [12]string{"jan", "feb", "mar", "apr", "maj", "jun", "jul", "aug", "sep", "okt", "nov", "dec"}
)

// Midnight truncates t to local midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Monday at local midnight of the week containing t.
// Sunday maps to the preceding Monday (6-day rollback).
func StartOfWeek(t time.Time) time.Time {
	day := Midnight(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6
	}
	return day.AddDate(0, 0, -offset)
}

// WeekDays returns the five dates Monday..Friday starting at monday.
func WeekDays(monday time.Time) []time.Time {
	days := make([]time.Time, 5)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// AddDays shifts a date by n calendar days, keeping local midnight.
func AddDays(t time.Time, n int) time.Time {
	return Midnight(t.AddDate(0, 0, n))
}

// ISODate formats t as local YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseISODate parses a local YYYY-MM-DD date.
func ParseISODate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

// FormatMinutes renders minutes-since-midnight as zero-padded HH:MM.
func FormatMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// DayLabel formats a date as "man 27. jan".
func DayLabel(t time.Time) string {
	return fmt.Sprintf("%s %d. %s", weekdayShort[t.Weekday()], t.Day(), monthShort[t.Month()-1])
}

// WeekRangeLabel formats the Monday–Friday span, e.g. "27.–31. jan" within
// one month or "28. apr – 2. maj" across a month boundary.
func WeekRangeLabel(monday time.Time) string {
	friday := monday.AddDate(0, 0, 4)
	if monday.Month() == friday.Month() {
		return fmt.Sprintf("%d.–%d. %s", monday.Day(), friday.Day(), monthShort[friday.Month()-1])
	}
	return fmt.Sprintf("%d. %s – %d. %s",
		monday.Day(), monthShort[monday.Month()-1],
		friday.Day(), monthShort[friday.Month()-1],
	)
}
