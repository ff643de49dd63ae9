package database

import (
	"gorm.io/gorm"

	"fitness-platform/internal/domain"
)

// Models 按外键依赖排序：被引用的表在前
func Models() []any {
	return []any{
		&domain.User{}, &domain.Profile{}, &domain.RevokedToken{},
		&domain.Exercise{}, &domain.WorkoutPlan{}, &domain.WorkoutLog{},
		&domain.Meal{}, &domain.MealPlan{}, &domain.MealPlanMeal{}, &domain.Recipe{},
		&domain.NutritionLog{}, &domain.CalorieCalculation{},
		&domain.WeightLog{}, &domain.BodyMeasurement{}, &domain.Milestone{},
		&domain.Post{}, &domain.Comment{}, &domain.Like{}, &domain.Follow{}, &domain.Challenge{},
		&domain.Article{}, &domain.Video{}, &domain.FitnessMeasurement{},
		&domain.Category{}, &domain.Discount{}, &domain.Product{},
		&domain.Customer{}, &domain.Address{},
		&domain.Cart{}, &domain.CartItem{}, &domain.Order{}, &domain.OrderItem{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
