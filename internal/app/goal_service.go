package app

import (
	"context"
	"errors"
	"sort"

	"github.com/lesniewskii/weight-tracker/internal/domain"
	"github.com/lesniewskii/weight-tracker/internal/metrics"
)

// ErrInvalidGoal indicates a goal with a non-positive weight.
var ErrInvalidGoal = errors.New("start and target weight must be > 0")

// GoalService backs the goals form.
type GoalService struct {
	api     domain.GoalWriter
	reader  domain.ResourceReader
	refresh domain.Invalidator
	metrics *metrics.Manager
}

// NewGoalService creates a GoalService.
func NewGoalService(api domain.GoalWriter, reader domain.ResourceReader, refresh domain.Invalidator, m *metrics.Manager) *GoalService {
	return &GoalService{api: api, reader: reader, refresh: refresh, metrics: m}
}

// Create validates and submits a new goal.
func (s *GoalService) Create(ctx context.Context, startWeight, targetWeight float64, targetDate string) (*domain.Goal, error) {
	if startWeight <= 0 || targetWeight <= 0 {
		return nil, ErrInvalidGoal
	}
	d, err := domain.ParseDate(targetDate)
	if err != nil {
		return nil, err
	}
	g, err := s.api.CreateGoal(ctx, domain.GoalInput{StartWeight: startWeight, TargetWeight: targetWeight, TargetDate: d})
	s.metrics.Mutation("goal", err)
	if err != nil {
		return nil, err
	}
	s.refresh.Invalidate()
	return g, nil
}

// List returns the user's goals, latest target date first.
func (s *GoalService) List(ctx context.Context) ([]domain.Goal, error) {
	goals, err := s.reader.FetchGoals(ctx)
	if err != nil {
		if domain.IsMalformed(err) {
			return []domain.Goal{}, nil
		}
		return nil, err
	}
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].TargetDate.After(goals[j].TargetDate.Time)
	})
	return goals, nil
}
