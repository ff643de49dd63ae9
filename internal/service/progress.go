package service

import (
	"context"

	"gorm.io/gorm"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/repo"
)

type ProgressService struct {
	Weights      *Resource[domain.WeightLog]
	Measurements *Resource[domain.BodyMeasurement]
	Milestones   *Resource[domain.Milestone]

	weights      *repo.GormStore[domain.WeightLog]
	measurements *repo.GormStore[domain.BodyMeasurement]
}

func NewProgressService(db *gorm.DB, tx Transactor) *ProgressService {
	s := &ProgressService{
		weights:      repo.NewGormStore[domain.WeightLog](db),
		measurements: repo.NewGormStore[domain.BodyMeasurement](db),
	}
	s.Weights = newResource("weight_log", s.weights, tx, ownerOnly)
	s.Weights.Hooks.Validate = func(ctx context.Context, m, prev *domain.WeightLog) error {
		return oncePerDay(ctx, s.weights, &m.DateLogged, m.UserID, m.ID, prev == nil, "weight already logged for today")
	}

	s.Measurements = newResource("body_measurement", s.measurements, tx, ownerOnly)
	s.Measurements.Hooks.Validate = func(ctx context.Context, m, prev *domain.BodyMeasurement) error {
		return oncePerDay(ctx, s.measurements, &m.DateLogged, m.UserID, m.ID, prev == nil, "measurements already logged for today")
	}

	s.Milestones = newResource("milestone", repo.NewGormStore[domain.Milestone](db), tx, ownerOnly)
	s.Milestones.Hooks.Validate = func(_ context.Context, m, _ *domain.Milestone) error {
		m.MarkAchieved(now())
		return nil
	}
	return s
}

// oncePerDay 新建时日期取今天，同一天只能一条
func oncePerDay(ctx context.Context, st counter, day *domain.Day, userID, id string, creating bool, msg string) error {
	if !creating {
		return nil
	}
	*day = domain.Today()
	conds := []domain.Cond{domain.Eq("user_id", userID), domain.Eq("date_logged", *day)}
	if id != "" {
		conds = append(conds, domain.Ne("id", id))
	}
	n, err := st.Count(ctx, conds...)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Invalid(domain.NonField, msg)
	}
	return nil
}

// TodayWeight 当天记录，没有则 ErrNotFound
func (s *ProgressService) TodayWeight(ctx context.Context, c domain.Caller) (*domain.WeightLog, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	return s.weights.First(ctx, domain.Eq("user_id", c.UserID), domain.Eq("date_logged", domain.Today()))
}

func (s *ProgressService) TodayMeasurement(ctx context.Context, c domain.Caller) (*domain.BodyMeasurement, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	return s.measurements.First(ctx, domain.Eq("user_id", c.UserID), domain.Eq("date_logged", domain.Today()))
}
