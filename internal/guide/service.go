/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package guide owns every mutation of the program lineup. Each write keeps
// the derived program_intervals table in lockstep with programs inside one
// transaction, so readers only ever see both tables agreeing.
package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/mimir_guide/internal/cache"
	"github.com/friendsincode/mimir_guide/internal/events"
	"github.com/friendsincode/mimir_guide/internal/models"
	"github.com/friendsincode/mimir_guide/internal/telemetry"
	"github.com/friendsincode/mimir_guide/internal/timeday"
)

var (
	// ErrDuplicateProgram indicates the exact name/start/end triple already exists.
	ErrDuplicateProgram = errors.New("program with identical name and times already exists")

	// ErrProgramNotFound indicates an update targeted an unknown program name.
	ErrProgramNotFound = errors.New("program not found")

	// ErrInvalidName indicates an empty, blank, or over-length program name.
	ErrInvalidName = errors.New("invalid program name")
)

// Publisher receives committed mutation events.
type Publisher interface {
	Publish(events.EventType, events.Payload)
}

// Service is the synchronized write path for the lineup.
type Service struct {
	db        *gorm.DB
	bus       Publisher
	cache     *cache.Cache
	logger    zerolog.Logger
	programs  programStore
	intervals intervalStore
}

// NewService wires the guide service. bus and intervalCache may be nil.
func NewService(db *gorm.DB, bus Publisher, intervalCache *cache.Cache, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		bus:    bus,
		cache:  intervalCache,
		logger: logger.With().Str("component", "guide").Logger(),
	}
}

// Insert adds a program and its derived interval record atomically. The
// identical name/start/end triple is rejected; a reused name with different
// times is allowed and left for the integrity scan to flag.
func (s *Service) Insert(ctx context.Context, name string, r timeday.Range) error {
	if err := validateName(name); err != nil {
		return err
	}

	count := timeday.Intervals(r)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := s.programs.exists(tx, name, r)
		if err != nil {
			return fmt.Errorf("check for duplicate: %w", err)
		}
		if dup {
			return ErrDuplicateProgram
		}
		if _, err := s.programs.create(tx, name, r); err != nil {
			return fmt.Errorf("create program: %w", err)
		}
		if err := s.intervals.upsert(tx, name, count); err != nil {
			return fmt.Errorf("write interval record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterMutation(ctx, "insert", events.EventProgramCreated, events.Payload{
		"program":   name,
		"start":     r.Start.String(),
		"end":       r.End.String(),
		"intervals": count,
	}, name)
	s.cache.SetIntervalCount(ctx, name, count)
	return nil
}

// Update replaces the program's time range and refreshes its interval record.
func (s *Service) Update(ctx context.Context, name string, r timeday.Range) error {
	return s.Rename(ctx, name, name, r)
}

// Rename replaces the program's name and/or range. When the key changes the
// old interval record is removed and rewritten under the new name, never left
// stale. Unknown names fail with ErrProgramNotFound: update is not an upsert.
func (s *Service) Rename(ctx context.Context, name, newName string, r timeday.Range) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateName(newName); err != nil {
		return err
	}

	count := timeday.Intervals(r)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		program, err := s.programs.firstByName(tx, name)
		if err != nil {
			return fmt.Errorf("load program: %w", err)
		}
		if program == nil {
			return ErrProgramNotFound
		}

		updates := map[string]any{
			"name":       newName,
			"start_time": r.Start,
			"end_time":   r.End,
		}
		if err := tx.Model(&models.Program{}).Where("id = ?", program.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update program: %w", err)
		}

		if newName != name {
			if err := s.intervals.deleteByName(tx, name); err != nil {
				return fmt.Errorf("remove old interval record: %w", err)
			}
		}
		if err := s.intervals.upsert(tx, newName, count); err != nil {
			return fmt.Errorf("write interval record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	eventType := events.EventProgramUpdated
	operation := "update"
	if newName != name {
		eventType = events.EventProgramRenamed
		operation = "rename"
	}
	s.afterMutation(ctx, operation, eventType, events.Payload{
		"program":   newName,
		"previous":  name,
		"start":     r.Start.String(),
		"end":       r.End.String(),
		"intervals": count,
	}, name, newName)
	s.cache.SetIntervalCount(ctx, newName, count)
	return nil
}

// Delete removes the program and its interval record. Deleting an unknown
// name is a silent no-op.
func (s *Service) Delete(ctx context.Context, name string) error {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		removed, err = s.programs.deleteByName(tx, name)
		if err != nil {
			return fmt.Errorf("delete program: %w", err)
		}
		if err := s.intervals.deleteByName(tx, name); err != nil {
			return fmt.Errorf("delete interval record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		s.afterMutation(ctx, "delete", events.EventProgramDeleted, events.Payload{
			"program": name,
		}, name)
	}
	return nil
}

// IntervalCount returns the derived interval count for a program name. The
// second return is false when no interval record exists.
func (s *Service) IntervalCount(ctx context.Context, name string) (int, bool, error) {
	if count, ok := s.cache.IntervalCount(ctx, name); ok {
		return count, true, nil
	}

	count, found, err := s.intervals.countByName(s.db.WithContext(ctx), name)
	if err != nil {
		return 0, false, fmt.Errorf("read interval record: %w", err)
	}
	if found {
		s.cache.SetIntervalCount(ctx, name, count)
	}
	return count, found, nil
}

// ListPrograms returns all lineup entries, optionally ordered by start time
// for gap and overlap inspection.
func (s *Service) ListPrograms(ctx context.Context, sortByStart bool) ([]models.Program, error) {
	query := s.db.WithContext(ctx).Model(&models.Program{})
	if sortByStart {
		query = query.Order("start_time, name")
	} else {
		query = query.Order("name")
	}

	var programs []models.Program
	if err := query.Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// GetProgram returns the first program with the given name, or nil.
func (s *Service) GetProgram(ctx context.Context, name string) (*models.Program, error) {
	program, err := s.programs.firstByName(s.db.WithContext(ctx), name)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	return program, nil
}

func (s *Service) afterMutation(ctx context.Context, operation string, eventType events.EventType, payload events.Payload, invalidate ...string) {
	telemetry.LineupMutationsTotal.WithLabelValues(operation).Inc()
	s.cache.Invalidate(ctx, invalidate...)
	if s.bus != nil {
		s.bus.Publish(eventType, payload)
	}
	s.logger.Debug().Str("operation", operation).Interface("payload", payload).Msg("lineup mutation committed")
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if len(name) > models.MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, models.MaxNameLength)
	}
	return nil
}
