package handler

import (
	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
)

type Workout struct {
	S *service.WorkoutService
}

type exerciseIn struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	VideoURL    *string `json:"video_url"`
}

func (in *exerciseIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, true, 255)
	f.choice("category", in.Category, true, domain.ExerciseCategories...)
	f.url("video_url", in.VideoURL)
	return f.errs
}

func (in *exerciseIn) Apply(m *domain.Exercise) {
	set(&m.Name, in.Name)
	set(&m.Description, in.Description)
	set(&m.Category, in.Category)
	set(&m.VideoURL, in.VideoURL)
}

type planIn struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	ExerciseIDs *[]string `json:"exercise_ids"`
}

func (in *planIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, true, 255)
	f.ids("exercise_ids", in.ExerciseIDs)
	return f.errs
}

func (in *planIn) Apply(m *domain.WorkoutPlan) {
	set(&m.Name, in.Name)
	set(&m.Description, in.Description)
	setIDs(&m.ExerciseIDs, in.ExerciseIDs)
}

type workoutLogIn struct {
	WorkoutPlanID *string     `json:"workout_plan_id"`
	Date          *domain.Day `json:"date"`
	Duration      *int        `json:"duration"`
	Notes         *string     `json:"notes"`
}

func (in *workoutLogIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("workout_plan_id", in.WorkoutPlanID, true, 36)
	if f.required("date", in.Date != nil) && in.Date.IsZero() {
		f.errs.Add("date", msgRequired)
	}
	above(f, "duration", in.Duration, true, 0)
	return f.errs
}

func (in *workoutLogIn) Apply(m *domain.WorkoutLog) {
	set(&m.WorkoutPlanID, in.WorkoutPlanID)
	set(&m.Date, in.Date)
	set(&m.Duration, in.Duration)
	set(&m.Notes, in.Notes)
}

func (h Workout) MountAPI(e ez.EZ) {
	e = e.Tag("workout")

	ez.Crud[domain.Exercise, exerciseIn](e, ez.CrudConfig[domain.Exercise]{
		Path:     "/workout/exercises",
		Resource: h.S.Exercises,
		Search:   []string{"name", "description"},
		Ordering: []string{"name", "category", "created_at"},
		Filters:  []string{"category"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			if v := c.Query("category"); v != "" {
				q.Eq("category", v)
			}
			return nil
		},
	})

	ez.Crud[domain.WorkoutPlan, planIn](e, ez.CrudConfig[domain.WorkoutPlan]{
		Path:     "/workout/plans",
		Resource: h.S.Plans,
		Search:   []string{"name", "description"},
		Ordering: []string{"name", "created_at"},
	})

	ez.Crud[domain.WorkoutLog, workoutLogIn](e, ez.CrudConfig[domain.WorkoutLog]{
		Path:     "/workout/logs",
		Resource: h.S.Logs,
		Ordering: []string{"date", "duration", "created_at"},
		Filters:  []string{"workout_plan", "date_from", "date_to"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			if v := c.Query("workout_plan"); v != "" {
				q.Eq("workout_plan_id", v)
			}
			return dateRange(c, q, "date")
		},
	})
}

// dateRange date_from / date_to 过滤
func dateRange(c *ez.Ctx, q *domain.ListQuery, column string) error {
	from, err := ez.QueryDay(c, "date_from")
	if err != nil {
		return err
	}
	to, err := ez.QueryDay(c, "date_to")
	if err != nil {
		return err
	}
	ez.Range(q, column, from, to)
	return nil
}
