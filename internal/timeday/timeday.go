/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package timeday models clock times within a single broadcast day and the
// 15-minute interval arithmetic derived from them.
package timeday

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinutesPerDay is the length of a broadcast day.
	MinutesPerDay = 24 * 60

	// SlotMinutes is the length of one interval bucket.
	SlotMinutes = 15
)

// Time is a time of day expressed as minutes since midnight [0, 1440).
type Time int

// Parse reads a zero-padded 24-hour "HH:MM" string.
func Parse(s string) (Time, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return Time(hour*60 + minute), nil
}

// FromMinutes converts raw minutes since midnight, rejecting out-of-day values.
func FromMinutes(m int) (Time, error) {
	if m < 0 || m >= MinutesPerDay {
		return 0, fmt.Errorf("minutes %d out of range [0, %d)", m, MinutesPerDay)
	}
	return Time(m), nil
}

// Minutes returns the minutes-since-midnight representation.
func (t Time) Minutes() int {
	return int(t)
}

// Hour returns the hour component.
func (t Time) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component within the hour.
func (t Time) Minute() int {
	return int(t) % 60
}

// String renders the canonical zero-padded "HH:MM" form.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalJSON encodes the time as an "HH:MM" string.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either an "HH:MM" string or a bare minute count, so
// both wire representations round-trip.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, perr := Parse(s)
		if perr != nil {
			return perr
		}
		*t = parsed
		return nil
	}
	var m int
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("time of day must be an HH:MM string or minute count: %w", err)
	}
	parsed, err := FromMinutes(m)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Range is a start/end pair of day times. End numerically less than Start
// denotes a span that wraps past midnight. Zero-length and full-day ranges
// are both written start == end and are indistinguishable.
type Range struct {
	Start Time
	End   Time
}

// NewRange builds a range from two "HH:MM" strings.
func NewRange(start, end string) (Range, error) {
	s, err := Parse(start)
	if err != nil {
		return Range{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: s, End: e}, nil
}

// Wraps reports whether the range crosses midnight.
func (r Range) Wraps() bool {
	return r.End < r.Start
}

// Duration returns the range length in minutes. start == end counts as zero,
// which collapses instant and literal full-day programs alike.
func (r Range) Duration() int {
	switch {
	case r.Start == r.End:
		return 0
	case r.End > r.Start:
		return int(r.End - r.Start)
	default:
		// Minutes left before midnight plus minutes elapsed after it.
		return (MinutesPerDay - int(r.Start)) + int(r.End)
	}
}

// String renders the range as "HH:MM-HH:MM".
func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Intervals counts the whole 15-minute buckets a range covers. Partial
// buckets are truncated. Total over every start/end pair.
func Intervals(r Range) int {
	return r.Duration() / SlotMinutes
}

// OnSlotBoundary reports whether a time lands on a quarter-hour mark.
func OnSlotBoundary(t Time) bool {
	return t.Minute()%SlotMinutes == 0
}
