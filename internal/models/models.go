/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"

	"github.com/friendsincode/mimir_guide/internal/timeday"
)

// MaxNameLength is the longest program name the mutation boundary accepts
// and the integrity scanner tolerates.
const MaxNameLength = 255

// Program is a lineup entry with a daily start/end time. Name is the natural
// key joined against program_intervals. It is deliberately NOT unique at the
// schema level: duplicate names are a condition the integrity scanner
// reports, not one the store refuses.
type Program struct {
	ID    string       `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string       `gorm:"type:varchar(255);index:idx_programs_name;not null" json:"name"`
	Start timeday.Time `gorm:"column:start_time;not null" json:"start_time"`
	End   timeday.Time `gorm:"column:end_time;not null" json:"end_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Program) TableName() string {
	return "programs"
}

// Range returns the program's time range as a value.
func (p *Program) Range() timeday.Range {
	return timeday.Range{Start: p.Start, End: p.End}
}

// ProgramInterval is the derived aggregate row: one record per known program
// name carrying its 15-minute interval count. Written only by the guide
// service in lockstep with programs.
type ProgramInterval struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramName   string `gorm:"type:varchar(255);index:idx_program_intervals_name;not null" json:"program_name"`
	IntervalCount int    `gorm:"not null" json:"interval_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (ProgramInterval) TableName() string {
	return "program_intervals"
}
