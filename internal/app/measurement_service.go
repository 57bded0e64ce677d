// Package app holds the application services: the refresh pipeline and the
// forms that mutate backend state.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lesniewskii/weight-tracker/internal/domain"
	"github.com/lesniewskii/weight-tracker/internal/metrics"
)

var (
	// ErrInvalidWeight indicates a weight that is not a positive number.
	ErrInvalidWeight = errors.New("weight must be > 0")
	// ErrInvalidID indicates a missing or non-positive resource id.
	ErrInvalidID = errors.New("id must be > 0")
	// ErrEmptyPatch indicates an edit that changes nothing.
	ErrEmptyPatch = errors.New("nothing to update")
)

// MeasurementService backs the add, edit and delete measurement forms.
type MeasurementService struct {
	api     domain.MeasurementWriter
	reader  domain.ResourceReader
	refresh domain.Invalidator
	metrics *metrics.Manager
}

// NewMeasurementService creates a MeasurementService. Every successful
// mutation invalidates refresh.
func NewMeasurementService(api domain.MeasurementWriter, reader domain.ResourceReader, refresh domain.Invalidator, m *metrics.Manager) *MeasurementService {
	return &MeasurementService{api: api, reader: reader, refresh: refresh, metrics: m}
}

// Add validates and submits a new measurement. day is "YYYY-MM-DD".
func (s *MeasurementService) Add(ctx context.Context, day string, weight float64, notes string) error {
	if weight <= 0 {
		return ErrInvalidWeight
	}
	d, err := domain.ParseDate(day)
	if err != nil {
		return err
	}
	err = s.api.CreateMeasurement(ctx, domain.MeasurementInput{Date: d, Weight: weight, Notes: notes})
	return s.done("add", err)
}

// Edit applies a partial update to measurement id.
func (s *MeasurementService) Edit(ctx context.Context, id int64, patch domain.MeasurementPatch) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if patch.Empty() {
		return ErrEmptyPatch
	}
	if patch.Weight != nil && *patch.Weight <= 0 {
		return ErrInvalidWeight
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return fmt.Errorf("invalid date: empty")
	}
	return s.done("edit", s.api.UpdateMeasurement(ctx, id, patch))
}

// Delete removes measurement id.
func (s *MeasurementService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.done("delete", s.api.DeleteMeasurement(ctx, id))
}

// List returns the current measurements, newest first.
func (s *MeasurementService) List(ctx context.Context) ([]domain.Measurement, error) {
	items, err := s.reader.FetchMeasurements(ctx)
	if err != nil {
		if domain.IsMalformed(err) {
			return []domain.Measurement{}, nil
		}
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date.Time)
	})
	return items, nil
}

func (s *MeasurementService) done(op string, err error) error {
	s.metrics.Mutation(op, err)
	if err != nil {
		return err
	}
	s.refresh.Invalidate()
	return nil
}
