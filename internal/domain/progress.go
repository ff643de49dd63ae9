package domain

import "time"

// WeightLog 每用户每天最多一条
type WeightLog struct {
	Base
	UserID     string  `gorm:"size:36;not null;uniqueIndex:idx_weight_user_day" json:"user_id"`
	User       *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	WeightKG   float64 `gorm:"not null" json:"weight_kg"`
	DateLogged Day     `gorm:"not null;uniqueIndex:idx_weight_user_day" json:"date_logged"`
}

func (l *WeightLog) OwnerID() string     { return l.UserID }
func (l *WeightLog) SetOwner(uid string) { l.UserID = uid }

// BodyMeasurement 身体围度（cm），每用户每天最多一条
type BodyMeasurement struct {
	Base
	UserID     string  `gorm:"size:36;not null;uniqueIndex:idx_measure_user_day" json:"user_id"`
	User       *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ChestCM    float64 `json:"chest_cm"`
	WaistCM    float64 `json:"waist_cm"`
	HipsCM     float64 `json:"hips_cm"`
	BicepsCM   float64 `json:"biceps_cm"`
	ThighsCM   float64 `json:"thighs_cm"`
	CalvesCM   float64 `json:"calves_cm"`
	NeckCM     float64 `json:"neck_cm"`
	DateLogged Day     `gorm:"not null;uniqueIndex:idx_measure_user_day" json:"date_logged"`
}

func (m *BodyMeasurement) OwnerID() string     { return m.UserID }
func (m *BodyMeasurement) SetOwner(uid string) { m.UserID = uid }

type Milestone struct {
	Base
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	User        *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	TargetValue float64    `json:"target_value"`
	Unit        string     `gorm:"size:32" json:"unit"`
	Achieved    bool       `gorm:"not null" json:"achieved"`
	AchievedAt  *time.Time `json:"achieved_at"`
}

func (m *Milestone) OwnerID() string     { return m.UserID }
func (m *Milestone) SetOwner(uid string) { m.UserID = uid }

// MarkAchieved 维护 achieved_at：首次达成记录时间，撤销时清空
func (m *Milestone) MarkAchieved(now time.Time) {
	switch {
	case m.Achieved && m.AchievedAt == nil:
		t := now.UTC()
		m.AchievedAt = &t
	case !m.Achieved:
		m.AchievedAt = nil
	}
}
