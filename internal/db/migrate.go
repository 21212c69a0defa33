/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"github.com/friendsincode/mimir_guide/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.Program{},
		&models.ProgramInterval{},
	); err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}
	return nil
}

// Reset drops all rows from both lineup tables. The derived table goes first
// so a failure mid-reset never leaves interval rows without their programs.
func Reset(database *gorm.DB) error {
	return database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ProgramInterval{}).Error; err != nil {
			return fmt.Errorf("clear program_intervals: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.Program{}).Error; err != nil {
			return fmt.Errorf("clear programs: %w", err)
		}
		return nil
	})
}
