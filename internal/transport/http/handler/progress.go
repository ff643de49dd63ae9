package handler

import (
	"net/http"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
)

type Progress struct {
	S *service.ProgressService
}

type weightIn struct {
	WeightKG *float64 `json:"weight_kg"`
}

func (in *weightIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	above(f, "weight_kg", in.WeightKG, true, 0)
	atMost(f, "weight_kg", in.WeightKG, 1000)
	return f.errs
}

func (in *weightIn) Apply(m *domain.WeightLog) { set(&m.WeightKG, in.WeightKG) }

type measurementIn struct {
	ChestCM  *float64 `json:"chest_cm"`
	WaistCM  *float64 `json:"waist_cm"`
	HipsCM   *float64 `json:"hips_cm"`
	BicepsCM *float64 `json:"biceps_cm"`
	ThighsCM *float64 `json:"thighs_cm"`
	CalvesCM *float64 `json:"calves_cm"`
	NeckCM   *float64 `json:"neck_cm"`
}

func (in *measurementIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	for field, v := range map[string]*float64{
		"chest_cm": in.ChestCM, "waist_cm": in.WaistCM, "hips_cm": in.HipsCM,
		"biceps_cm": in.BicepsCM, "thighs_cm": in.ThighsCM, "calves_cm": in.CalvesCM,
		"neck_cm": in.NeckCM,
	} {
		atLeast(f, field, v, false, 0)
	}
	return f.errs
}

func (in *measurementIn) Apply(m *domain.BodyMeasurement) {
	set(&m.ChestCM, in.ChestCM)
	set(&m.WaistCM, in.WaistCM)
	set(&m.HipsCM, in.HipsCM)
	set(&m.BicepsCM, in.BicepsCM)
	set(&m.ThighsCM, in.ThighsCM)
	set(&m.CalvesCM, in.CalvesCM)
	set(&m.NeckCM, in.NeckCM)
}

type milestoneIn struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	TargetValue *float64 `json:"target_value"`
	Unit        *string  `json:"unit"`
	Achieved    *bool    `json:"achieved"`
}

func (in *milestoneIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("title", in.Title, true, 255)
	f.text("unit", in.Unit, false, 32)
	return f.errs
}

func (in *milestoneIn) Apply(m *domain.Milestone) {
	set(&m.Title, in.Title)
	set(&m.Description, in.Description)
	set(&m.TargetValue, in.TargetValue)
	set(&m.Unit, in.Unit)
	set(&m.Achieved, in.Achieved)
}

func (h Progress) MountAPI(e ez.EZ) {
	e = e.Tag("progress")

	ez.RegisterAction(e, ez.Action[struct{}, *domain.WeightLog]{
		Method:  http.MethodGet,
		Path:    "/progress/weight-logs/today/",
		Auth:    true,
		Summary: "today's weight log",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.WeightLog, error) {
			return h.S.TodayWeight(c.Request.Context(), c.Caller)
		},
	})
	ez.Crud[domain.WeightLog, weightIn](e, ez.CrudConfig[domain.WeightLog]{
		Path:     "/progress/weight-logs",
		Resource: h.S.Weights,
		Ordering: []string{"date_logged", "weight_kg"},
		Filters:  []string{"date_from", "date_to"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			return dateRange(c, q, "date_logged")
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.BodyMeasurement]{
		Method:  http.MethodGet,
		Path:    "/progress/body-measurements/today/",
		Auth:    true,
		Summary: "today's body measurements",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.BodyMeasurement, error) {
			return h.S.TodayMeasurement(c.Request.Context(), c.Caller)
		},
	})
	ez.Crud[domain.BodyMeasurement, measurementIn](e, ez.CrudConfig[domain.BodyMeasurement]{
		Path:     "/progress/body-measurements",
		Resource: h.S.Measurements,
		Ordering: []string{"date_logged"},
		Filters:  []string{"date_from", "date_to"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			return dateRange(c, q, "date_logged")
		},
	})

	ez.Crud[domain.Milestone, milestoneIn](e, ez.CrudConfig[domain.Milestone]{
		Path:     "/progress/milestones",
		Resource: h.S.Milestones,
		Search:   []string{"title", "description"},
		Ordering: []string{"created_at", "achieved_at", "title"},
		Filters:  []string{"achieved"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			achieved, err := ez.QueryBool(c, "achieved")
			if err != nil {
				return err
			}
			if achieved != nil {
				q.Eq("achieved", *achieved)
			}
			return nil
		},
	})
}
