// Package day handles calendar dates stored as YYYY-MM-DD strings and clock times as HH:MM.
package day

import (
	"fmt"
	"time"
)

const (
	Layout     = "2006-01-02"
	TimeLayout = "15:04"
)

func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

func Today(now time.Time) string {
	return now.Format(Layout)
}

// Add shifts a date string by n days.
func Add(s string, n int) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, n)), nil
}

// Between returns the number of calendar days from one date string to another.
func Between(from, to string) (int, error) {
	f, err := Parse(from)
	if err != nil {
		return 0, err
	}
	t, err := Parse(to)
	if err != nil {
		return 0, err
	}
	fy, fm, fd := f.Date()
	ty, tm, td := t.Date()
	fu := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	tu := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(tu.Sub(fu).Hours() / 24), nil
}

// ParseClock validates an HH:MM time.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t, nil
}

// AddMinutes shifts an HH:MM clock, wrapping around midnight.
func AddMinutes(clock string, minutes int) (string, error) {
	t, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(TimeLayout), nil
}

// Hour returns the hour of an HH:MM clock, or -1 when it cannot be parsed.
func Hour(clock string) int {
	t, err := ParseClock(clock)
	if err != nil {
		return -1
	}
	return t.Hour()
}

// Week returns the seven dates starting at start.
func Week(start string) ([]string, error) {
	t, err := Parse(start)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, Format(t.AddDate(0, 0, i)))
	}
	return dates, nil
}
