package domain

var ExerciseCategories = []string{"Strength", "Cardio"}

type Exercise struct {
	Base
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:100;not null;index" json:"category"`
	VideoURL    string `gorm:"size:500" json:"video_url"`
}

type WorkoutPlan struct {
	Base
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	User        *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Exercises   []Exercise `gorm:"many2many:workout_plan_exercises" json:"exercises"`

	// ExerciseIDs 非 nil 时保存后替换关联
	ExerciseIDs []string `gorm:"-" json:"-"`
}

func (p *WorkoutPlan) OwnerID() string     { return p.UserID }
func (p *WorkoutPlan) SetOwner(uid string) { p.UserID = uid }

// WorkoutLog 单次训练记录，仅所有者可见
type WorkoutLog struct {
	Base
	UserID        string       `gorm:"size:36;not null;index" json:"user_id"`
	User          *User        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	WorkoutPlanID string       `gorm:"size:36;not null;index" json:"workout_plan_id"`
	WorkoutPlan   *WorkoutPlan `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Date          Day          `gorm:"not null;index" json:"date"`
	Duration      int          `gorm:"not null" json:"duration"` // 分钟
	Notes         string       `gorm:"type:text" json:"notes"`
}

func (l *WorkoutLog) OwnerID() string     { return l.UserID }
func (l *WorkoutLog) SetOwner(uid string) { l.UserID = uid }
