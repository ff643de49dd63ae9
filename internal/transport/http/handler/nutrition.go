package handler

import (
	"net/http"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
)

type Nutrition struct {
	S *service.NutritionService
}

type macrosIn struct {
	Calories *int     `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fats     *float64 `json:"fats"`
}

func (in *macrosIn) check(f *fields) {
	atLeast(f, "calories", in.Calories, true, 0)
	atLeast(f, "protein", in.Protein, true, 0)
	atLeast(f, "carbs", in.Carbs, true, 0)
	atLeast(f, "fats", in.Fats, true, 0)
}

type mealIn struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	macrosIn
}

func (in *mealIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, true, 255)
	f.text("category", in.Category, false, 100)
	in.check(f)
	return f.errs
}

func (in *mealIn) Apply(m *domain.Meal) {
	set(&m.Name, in.Name)
	set(&m.Category, in.Category)
	set(&m.Description, in.Description)
	set(&m.Calories, in.Calories)
	set(&m.Protein, in.Protein)
	set(&m.Carbs, in.Carbs)
	set(&m.Fats, in.Fats)
}

type mealPlanIn struct {
	Name  *string           `json:"name"`
	Goal  *string           `json:"goal"`
	Meals *[]domain.MealRef `json:"meals"`
}

func (in *mealPlanIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, true, 255)
	f.choice("goal", in.Goal, true, domain.MealPlanGoals...)
	if in.Meals != nil {
		for _, r := range *in.Meals {
			if domain.Blank(r.MealID) {
				f.errs.Add("meals", "meal_id is required for every entry")
				break
			}
			if r.Order < 0 {
				f.errs.Add("meals", "order must not be negative")
				break
			}
		}
	}
	return f.errs
}

func (in *mealPlanIn) Apply(m *domain.MealPlan) {
	set(&m.Name, in.Name)
	set(&m.Goal, in.Goal)
	if in.Meals != nil {
		m.MealRefs = append([]domain.MealRef{}, (*in.Meals)...)
	}
}

type recipeIn struct {
	Name         *string `json:"name"`
	Ingredients  *string `json:"ingredients"`
	Instructions *string `json:"instructions"`
	macrosIn
}

func (in *recipeIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, true, 255)
	f.text("ingredients", in.Ingredients, true, 0)
	f.text("instructions", in.Instructions, true, 0)
	in.check(f)
	return f.errs
}

func (in *recipeIn) Apply(m *domain.Recipe) {
	set(&m.Name, in.Name)
	set(&m.Ingredients, in.Ingredients)
	set(&m.Instructions, in.Instructions)
	set(&m.Calories, in.Calories)
	set(&m.Protein, in.Protein)
	set(&m.Carbs, in.Carbs)
	set(&m.Fats, in.Fats)
}

type nutritionLogIn struct {
	MealID   *string     `json:"meal_id"`
	Name     *string     `json:"name"`
	Date     *domain.Day `json:"date"`
	Servings *float64    `json:"servings"`
	Calories *int        `json:"calories"`
}

func (in *nutritionLogIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, false, 255)
	if f.required("date", in.Date != nil) && in.Date.IsZero() {
		f.errs.Add("date", msgRequired)
	}
	above(f, "servings", in.Servings, true, 0)
	atLeast(f, "calories", in.Calories, true, 0)
	return f.errs
}

func (in *nutritionLogIn) Apply(m *domain.NutritionLog) {
	if in.MealID != nil {
		m.MealID = nil
		if *in.MealID != "" {
			id := *in.MealID
			m.MealID = &id
		}
	}
	set(&m.Name, in.Name)
	set(&m.Date, in.Date)
	set(&m.Servings, in.Servings)
	set(&m.Calories, in.Calories)
}

type calorieIn struct {
	Gender        *string  `json:"gender"`
	Age           *int     `json:"age"`
	WeightKG      *float64 `json:"weight_kg"`
	HeightCM      *float64 `json:"height_cm"`
	ActivityLevel *string  `json:"activity_level"`
	Goal          *string  `json:"goal"`
}

func (in *calorieIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.choice("gender", in.Gender, true, domain.Genders...)
	above(f, "age", in.Age, true, 0)
	atMost(f, "age", in.Age, 130)
	above(f, "weight_kg", in.WeightKG, true, 0)
	above(f, "height_cm", in.HeightCM, true, 0)
	f.choice("activity_level", in.ActivityLevel, true, domain.ActivityLevels...)
	if in.Goal != nil && *in.Goal != "" {
		f.choice("goal", in.Goal, false, domain.CalorieGoals...)
	}
	return f.errs
}

func (in *calorieIn) Apply(m *domain.CalorieCalculation) { in.applyInput(&m.CalorieInput) }

func (in *calorieIn) applyInput(m *domain.CalorieInput) {
	set(&m.Gender, in.Gender)
	set(&m.Age, in.Age)
	set(&m.WeightKG, in.WeightKG)
	set(&m.HeightCM, in.HeightCM)
	set(&m.ActivityLevel, in.ActivityLevel)
	set(&m.Goal, in.Goal)
}

type calorieOut struct {
	DailyCalories float64 `json:"daily_calories"`
}

func (h Nutrition) MountAPI(e ez.EZ) {
	e = e.Tag("nutrition")

	ez.Crud[domain.Meal, mealIn](e, ez.CrudConfig[domain.Meal]{
		Path:     "/nutrition/meals",
		Resource: h.S.Meals,
		Search:   []string{"name", "category", "description"},
		Ordering: []string{"name", "calories"},
		Filters:  []string{"category"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			if v := c.Query("category"); v != "" {
				q.Eq("category", v)
			}
			return nil
		},
	})

	ez.Crud[domain.MealPlan, mealPlanIn](e, ez.CrudConfig[domain.MealPlan]{
		Path:     "/nutrition/meal-plans",
		Resource: h.S.MealPlans,
		Search:   []string{"name"},
		Ordering: []string{"name", "created_at"},
		Filters:  []string{"goal"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			if v := c.Query("goal"); v != "" {
				q.Eq("goal", v)
			}
			return nil
		},
	})

	ez.Crud[domain.Recipe, recipeIn](e, ez.CrudConfig[domain.Recipe]{
		Path:     "/nutrition/recipes",
		Resource: h.S.Recipes,
		Search:   []string{"name", "ingredients"},
		Ordering: []string{"name", "calories"},
	})

	ez.Crud[domain.NutritionLog, nutritionLogIn](e, ez.CrudConfig[domain.NutritionLog]{
		Path:     "/nutrition/logs",
		Resource: h.S.Logs,
		Ordering: []string{"date", "calories", "created_at"},
		Filters:  []string{"date_from", "date_to"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			return dateRange(c, q, "date")
		},
	})

	ez.RegisterAction(e, ez.Action[calorieIn, calorieOut]{
		Method:  http.MethodPost,
		Path:    "/nutrition/calculators/calculate/",
		Binder:  ez.BindJSON,
		Summary: "calculate daily calorie needs without saving",
		Handler: func(c *ez.Ctx, in *calorieIn) (calorieOut, error) {
			var input domain.CalorieInput
			in.applyInput(&input)
			kcal, err := h.S.Calculate(input)
			return calorieOut{DailyCalories: kcal}, err
		},
	})

	ez.Crud[domain.CalorieCalculation, calorieIn](e, ez.CrudConfig[domain.CalorieCalculation]{
		Path:     "/nutrition/calculators",
		Resource: h.S.Calculations,
		Name:     "calorie calculation",
		Ordering: []string{"created_at", "daily_calories"},
	})
}
