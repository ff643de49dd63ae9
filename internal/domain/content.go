package domain

import (
	"math"
	"time"

	"gorm.io/gorm"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Publishable 文章/视频共用的发布流程
type Publishable struct {
	Status      string     `gorm:"size:10;not null;index" json:"status"`
	IsPublished bool       `gorm:"not null;index" json:"is_published"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
}

// SyncPublish 发布但未给时间时补 published_at，status 与 is_published 保持一致
func (p *Publishable) SyncPublish(now time.Time) {
	if p.Status == StatusPublished {
		p.IsPublished = true
	}
	if p.IsPublished {
		p.Status = StatusPublished
		if p.PublishedAt == nil {
			t := now.UTC()
			p.PublishedAt = &t
		}
	} else if p.Status == "" {
		p.Status = StatusDraft
	}
}

type Article struct {
	Base
	AuthorID *string `gorm:"size:36;index" json:"author_id"`
	Author   *User   `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Title    string  `gorm:"size:255;not null" json:"title"`
	Slug     string  `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Excerpt  string  `gorm:"type:text" json:"excerpt"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	Publishable
}

func (a *Article) OwnerID() string {
	if a.AuthorID == nil {
		return ""
	}
	return *a.AuthorID
}
func (a *Article) SetOwner(uid string) { a.AuthorID = &uid }

type Video struct {
	Base
	AuthorID        *string `gorm:"size:36;index" json:"author_id"`
	Author          *User   `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Title           string  `gorm:"size:255;not null;uniqueIndex" json:"title"`
	Slug            string  `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	URL             string  `gorm:"size:500" json:"url"`
	EmbedCode       string  `gorm:"type:text" json:"embed_code"`
	Description     string  `gorm:"type:text" json:"description"`
	DurationSeconds int     `json:"duration_seconds"`
	Publishable
}

func (v *Video) OwnerID() string {
	if v.AuthorID == nil {
		return ""
	}
	return *v.AuthorID
}
func (v *Video) SetOwner(uid string) { v.AuthorID = &uid }

// FitnessMeasurement 身高体重记录，BMI/BSA 读取时计算
type FitnessMeasurement struct {
	Base
	UserID      string  `gorm:"size:36;not null;index" json:"user_id"`
	User        *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	HeightCM    int     `gorm:"not null" json:"height_cm"`
	WeightKG    float64 `gorm:"not null" json:"weight_kg"`
	Gender      string  `gorm:"size:1" json:"gender"`
	DateOfBirth *Day    `json:"date_of_birth"`

	BMI         float64 `gorm:"-" json:"bmi"`
	BMICategory string  `gorm:"-" json:"bmi_category"`
	BSA         float64 `gorm:"-" json:"bsa"`
}

func (m *FitnessMeasurement) OwnerID() string     { return m.UserID }
func (m *FitnessMeasurement) SetOwner(uid string) { m.UserID = uid }

func (m *FitnessMeasurement) AfterFind(*gorm.DB) error {
	m.BMI = BMI(m.HeightCM, m.WeightKG)
	m.BMICategory = BMICategory(m.BMI)
	m.BSA = BSA(m.HeightCM, m.WeightKG)
	return nil
}

// BMI 体重(kg) / 身高(m)^2，保留两位
func BMI(heightCM int, weightKG float64) float64 {
	h := float64(heightCM) / 100
	if h <= 0 {
		return 0
	}
	return Round2(weightKG / (h * h))
}

// BMICategory WHO 分级
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// BSA Mosteller 公式
func BSA(heightCM int, weightKG float64) float64 {
	if heightCM <= 0 || weightKG <= 0 {
		return 0
	}
	return Round2(math.Sqrt(float64(heightCM) * weightKG / 3600))
}
