/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package guide

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/mimir_guide/internal/models"
	"github.com/friendsincode/mimir_guide/internal/timeday"
)

// programStore wraps row access for the programs table. It is unexported so
// every mutation path outside this package has to go through Service.
type programStore struct{}

func (programStore) exists(tx *gorm.DB, name string, r timeday.Range) (bool, error) {
	var count int64
	err := tx.Model(&models.Program{}).
		Where("name = ? AND start_time = ? AND end_time = ?", name, r.Start, r.End).
		Count(&count).Error
	return count > 0, err
}

func (programStore) create(tx *gorm.DB, name string, r timeday.Range) (*models.Program, error) {
	program := &models.Program{
		ID:    uuid.NewString(),
		Name:  name,
		Start: r.Start,
		End:   r.End,
	}
	if err := tx.Create(program).Error; err != nil {
		return nil, err
	}
	return program, nil
}

func (programStore) firstByName(tx *gorm.DB, name string) (*models.Program, error) {
	var program models.Program
	err := tx.Where("name = ?", name).Order("created_at").First(&program).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (programStore) deleteByName(tx *gorm.DB, name string) (int64, error) {
	res := tx.Where("name = ?", name).Delete(&models.Program{})
	return res.RowsAffected, res.Error
}

// intervalStore wraps row access for the derived program_intervals table.
type intervalStore struct{}

// upsert writes the interval record for a program name, creating or
// replacing so that there is never more than one record per name written by
// this package.
func (intervalStore) upsert(tx *gorm.DB, name string, count int) error {
	var record models.ProgramInterval
	err := tx.Where("program_name = ?", name).First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.Create(&models.ProgramInterval{
			ID:            uuid.NewString(),
			ProgramName:   name,
			IntervalCount: count,
		}).Error
	case err != nil:
		return err
	default:
		return tx.Model(&models.ProgramInterval{}).
			Where("id = ?", record.ID).
			Update("interval_count", count).Error
	}
}

func (intervalStore) deleteByName(tx *gorm.DB, name string) error {
	return tx.Where("program_name = ?", name).Delete(&models.ProgramInterval{}).Error
}

func (intervalStore) countByName(tx *gorm.DB, name string) (int, bool, error) {
	var record models.ProgramInterval
	err := tx.Where("program_name = ?", name).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return record.IntervalCount, true, nil
}
