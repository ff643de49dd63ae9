package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/repo"
)

type NutritionService struct {
	Meals        *Resource[domain.Meal]
	MealPlans    *Resource[domain.MealPlan]
	Recipes      *Resource[domain.Recipe]
	Logs         *Resource[domain.NutritionLog]
	Calculations *Resource[domain.CalorieCalculation]

	meals     *repo.GormStore[domain.Meal]
	planMeals *repo.GormStore[domain.MealPlanMeal]
}

func NewNutritionService(db *gorm.DB, tx Transactor) *NutritionService {
	s := &NutritionService{
		meals:     repo.NewGormStore[domain.Meal](db),
		planMeals: repo.NewGormStore[domain.MealPlanMeal](db),
	}
	s.Meals = newResource("meal", s.meals, tx, catalog)
	s.Recipes = newResource("recipe", repo.NewGormStore[domain.Recipe](db), tx, catalog)

	plans := repo.NewGormStore[domain.MealPlan](db).
		Preload("Meals", func(db *gorm.DB) *gorm.DB { return db.Order("position, created_at") }).
		Preload("Meals.Meal")
	s.MealPlans = newResource("meal_plan", plans, tx, shared)
	s.MealPlans.Hooks = Hooks[domain.MealPlan]{
		Validate:  s.validatePlan,
		AfterSave: s.replaceMeals,
	}

	s.Logs = newResource("nutrition_log", repo.NewGormStore[domain.NutritionLog](db), tx, ownerOnly)
	s.Logs.Hooks.Validate = func(ctx context.Context, m, _ *domain.NutritionLog) error {
		if m.MealID == nil {
			if domain.Blank(m.Name) {
				return domain.Invalid("name", "name is required when no meal is given")
			}
			return nil
		}
		return checkFK(ctx, s.meals, "meal_id", *m.MealID)
	}

	s.Calculations = newResource("calorie_calculation", repo.NewGormStore[domain.CalorieCalculation](db), tx, ownerOnly)
	return s
}

func (s *NutritionService) validatePlan(ctx context.Context, m, _ *domain.MealPlan) error {
	if m.MealRefs == nil {
		return nil
	}
	seen := map[string]bool{}
	ids := make([]string, 0, len(m.MealRefs))
	for _, r := range m.MealRefs {
		if seen[r.MealID] {
			return domain.Invalid("meals", fmt.Sprintf("meal %s appears more than once", r.MealID))
		}
		seen[r.MealID] = true
		ids = append(ids, r.MealID)
	}
	return checkIDs(ctx, s.meals, "meals", ids)
}

// replaceMeals 按给定顺序重建计划中的餐
func (s *NutritionService) replaceMeals(ctx context.Context, m *domain.MealPlan) error {
	if m.MealRefs == nil {
		return nil
	}
	if _, err := s.planMeals.DeleteWhere(ctx, domain.Eq("meal_plan_id", m.ID)); err != nil {
		return err
	}
	for i, r := range m.MealRefs {
		pos := r.Order
		if pos <= 0 {
			pos = i + 1
		}
		row := &domain.MealPlanMeal{MealPlanID: m.ID, MealID: r.MealID, Position: pos}
		if err := s.planMeals.Create(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// Calculate 不落库
func (s *NutritionService) Calculate(in domain.CalorieInput) (float64, error) {
	if err := in.Check().Err(); err != nil {
		return 0, err
	}
	return domain.DailyCalories(in), nil
}
