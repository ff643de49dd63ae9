package domain

import (
	"math"

	"gorm.io/gorm"
)

type Meal struct {
	Base
	Name        string  `gorm:"size:255;not null;index" json:"name"`
	Category    string  `gorm:"size:100;index" json:"category"`
	Calories    int     `gorm:"not null" json:"calories"`
	Protein     float64 `gorm:"not null" json:"protein"`
	Carbs       float64 `gorm:"not null" json:"carbs"`
	Fats        float64 `gorm:"not null" json:"fats"`
	Description string  `gorm:"type:text" json:"description"`
}

var MealPlanGoals = []string{"bulking", "cutting", "maintenance"}

type MealPlan struct {
	Base
	UserID string         `gorm:"size:36;not null;index" json:"user_id"`
	User   *User          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name   string         `gorm:"size:255;not null" json:"name"`
	Goal   string         `gorm:"size:50;not null" json:"goal"`
	Meals  []MealPlanMeal `gorm:"constraint:OnDelete:CASCADE" json:"meals"`

	TotalCalories int     `gorm:"-" json:"total_calories"`
	TotalProtein  float64 `gorm:"-" json:"total_protein"`
	TotalCarbs    float64 `gorm:"-" json:"total_carbs"`
	TotalFats     float64 `gorm:"-" json:"total_fats"`

	// MealRefs 非 nil 时保存后替换计划内的餐
	MealRefs []MealRef `gorm:"-" json:"-"`
}

func (p *MealPlan) OwnerID() string     { return p.UserID }
func (p *MealPlan) SetOwner(uid string) { p.UserID = uid }

// AfterFind 计算营养汇总（需预加载 Meals.Meal）
func (p *MealPlan) AfterFind(*gorm.DB) error {
	p.TotalCalories, p.TotalProtein, p.TotalCarbs, p.TotalFats = 0, 0, 0, 0
	for _, m := range p.Meals {
		if m.Meal == nil {
			continue
		}
		p.TotalCalories += m.Meal.Calories
		p.TotalProtein += m.Meal.Protein
		p.TotalCarbs += m.Meal.Carbs
		p.TotalFats += m.Meal.Fats
	}
	p.TotalProtein = Round2(p.TotalProtein)
	p.TotalCarbs = Round2(p.TotalCarbs)
	p.TotalFats = Round2(p.TotalFats)
	return nil
}

type MealRef struct {
	MealID string `json:"meal_id"`
	Order  int    `json:"order"`
}

// MealPlanMeal 计划与餐的有序关联，(meal_plan_id, meal_id) 唯一
type MealPlanMeal struct {
	Base
	MealPlanID string `gorm:"size:36;not null;uniqueIndex:idx_plan_meal" json:"-"`
	MealID     string `gorm:"size:36;not null;uniqueIndex:idx_plan_meal" json:"meal_id"`
	Meal       *Meal  `gorm:"constraint:OnDelete:CASCADE" json:"meal,omitempty"`
	Position   int    `gorm:"not null;default:1" json:"order"`
}

type Recipe struct {
	Base
	Name         string  `gorm:"size:255;not null;index" json:"name"`
	Ingredients  string  `gorm:"type:text;not null" json:"ingredients"`
	Instructions string  `gorm:"type:text;not null" json:"instructions"`
	Calories     int     `gorm:"not null" json:"calories"`
	Protein      float64 `gorm:"not null" json:"protein"`
	Carbs        float64 `gorm:"not null" json:"carbs"`
	Fats         float64 `gorm:"not null" json:"fats"`
}

// NutritionLog 用户饮食记录
type NutritionLog struct {
	Base
	UserID   string  `gorm:"size:36;not null;index" json:"user_id"`
	User     *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MealID   *string `gorm:"size:36;index" json:"meal_id"`
	Meal     *Meal   `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Name     string  `gorm:"size:255" json:"name"`
	Date     Day     `gorm:"not null;index" json:"date"`
	Servings float64 `gorm:"not null" json:"servings"`
	Calories int     `gorm:"not null" json:"calories"`
}

func (l *NutritionLog) OwnerID() string     { return l.UserID }
func (l *NutritionLog) SetOwner(uid string) { l.UserID = uid }

var (
	Genders        = []string{"male", "female"}
	ActivityLevels = []string{"sedentary", "light_activity", "moderate_activity", "heavy_activity"}
	CalorieGoals   = []string{"lose", "maintain", "gain"}
)

// CalorieInput 计算每日热量需求的输入
type CalorieInput struct {
	Gender        string  `json:"gender"`
	Age           int     `json:"age"`
	WeightKG      float64 `json:"weight_kg"`
	HeightCM      float64 `json:"height_cm"`
	ActivityLevel string  `json:"activity_level"`
	Goal          string  `json:"goal"`
}

func (in CalorieInput) Check() FieldErrors {
	errs := FieldErrors{}
	if !OneOf(in.Gender, Genders...) {
		errs.Add("gender", "must be one of male, female")
	}
	if in.Age <= 0 || in.Age > 130 {
		errs.Add("age", "must be between 1 and 130")
	}
	if in.WeightKG <= 0 {
		errs.Add("weight_kg", "must be positive")
	}
	if in.HeightCM <= 0 {
		errs.Add("height_cm", "must be positive")
	}
	if !OneOf(in.ActivityLevel, ActivityLevels...) {
		errs.Add("activity_level", "invalid activity level")
	}
	if in.Goal != "" && !OneOf(in.Goal, CalorieGoals...) {
		errs.Add("goal", "must be one of lose, maintain, gain")
	}
	return errs
}

var activityFactor = map[string]float64{
	"sedentary":         1.2,
	"light_activity":    1.375,
	"moderate_activity": 1.55,
	"heavy_activity":    1.725,
}

// DailyCalories Mifflin-St Jeor BMR × 活动系数，减脂 -500 / 增重 +500
func DailyCalories(in CalorieInput) float64 {
	bmr := 10*in.WeightKG + 6.25*in.HeightCM - 5*float64(in.Age)
	if in.Gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}
	f, ok := activityFactor[in.ActivityLevel]
	if !ok {
		f = activityFactor["heavy_activity"]
	}
	kcal := bmr * f
	switch in.Goal {
	case "lose":
		kcal -= 500
	case "gain":
		kcal += 500
	}
	return Round2(math.Max(kcal, 0))
}

// CalorieCalculation 保存的计算结果
type CalorieCalculation struct {
	Base
	UserID string `gorm:"size:36;not null;index" json:"user_id"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CalorieInput
	DailyCalories float64 `gorm:"not null" json:"daily_calories"`
}

func (c *CalorieCalculation) OwnerID() string     { return c.UserID }
func (c *CalorieCalculation) SetOwner(uid string) { c.UserID = uid }

// BeforeSave 入库前总是重新计算
func (c *CalorieCalculation) BeforeSave(*gorm.DB) error {
	c.DailyCalories = DailyCalories(c.CalorieInput)
	return nil
}
