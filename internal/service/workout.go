package service

import (
	"context"

	"gorm.io/gorm"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/repo"
)

type WorkoutService struct {
	Exercises *Resource[domain.Exercise]
	Plans     *Resource[domain.WorkoutPlan]
	Logs      *Resource[domain.WorkoutLog]

	exercises *repo.GormStore[domain.Exercise]
	plans     *repo.GormStore[domain.WorkoutPlan]
}

func NewWorkoutService(db *gorm.DB, tx Transactor) *WorkoutService {
	s := &WorkoutService{
		exercises: repo.NewGormStore[domain.Exercise](db).CleanJoin("workout_plan_exercises", "exercise_id"),
		plans: repo.NewGormStore[domain.WorkoutPlan](db).
			Preload("Exercises").
			CleanJoin("workout_plan_exercises", "workout_plan_id"),
	}
	s.Exercises = newResource("exercise", s.exercises, tx, catalog)

	s.Plans = newResource("workout_plan", s.plans, tx, shared)
	s.Plans.Hooks = Hooks[domain.WorkoutPlan]{
		Validate: func(ctx context.Context, m, _ *domain.WorkoutPlan) error {
			if m.ExerciseIDs == nil {
				return nil
			}
			return checkIDs(ctx, s.exercises, "exercise_ids", m.ExerciseIDs)
		},
		AfterSave: s.replaceExercises,
	}

	logs := repo.NewGormStore[domain.WorkoutLog](db)
	s.Logs = newResource("workout_log", logs, tx, ownerOnly)
	s.Logs.Hooks.Validate = func(ctx context.Context, m, _ *domain.WorkoutLog) error {
		return checkFK(ctx, s.plans, "workout_plan_id", m.WorkoutPlanID)
	}
	return s
}

func (s *WorkoutService) replaceExercises(ctx context.Context, m *domain.WorkoutPlan) error {
	if m.ExerciseIDs == nil {
		return nil
	}
	exs, err := s.exercises.Find(ctx, domain.In("id", uniqueIDs(m.ExerciseIDs)))
	if err != nil {
		return err
	}
	return s.plans.Replace(ctx, m, "Exercises", exs)
}
