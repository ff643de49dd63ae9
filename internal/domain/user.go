package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type User struct {
	Base
	Email        string         `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Username     string         `gorm:"uniqueIndex;size:150;not null" json:"username"`
	PasswordHash string         `gorm:"size:100;not null" json:"-"`
	FirstName    string         `gorm:"size:150" json:"first_name"`
	LastName     string         `gorm:"size:150" json:"last_name"`
	DateOfBirth  *Day           `json:"date_of_birth"`
	Role         string         `gorm:"size:16;not null" json:"role"` // "user"/"admin"
	IsActive     bool           `gorm:"not null" json:"is_active"`
	LastLogin    *time.Time     `json:"last_login"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Profile      *Profile       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) Caller() Caller { return Caller{UserID: u.ID, Role: u.Role} }

// Profile 与用户一一对应，注册时同一事务内创建
type Profile struct {
	Base
	UserID      string `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	Bio         string `gorm:"type:text" json:"bio"`
	HeightCM    int    `json:"height_cm"`
	FitnessGoal string `gorm:"size:16" json:"fitness_goal"`
	AvatarURL   string `gorm:"size:500" json:"avatar_url"`
}

func (p *Profile) OwnerID() string     { return p.UserID }
func (p *Profile) SetOwner(uid string) { p.UserID = uid }

var FitnessGoals = []string{"lose", "maintain", "gain"}

// RevokedToken 已作废的 refresh token（按 jti）
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;index"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

// UserRepository 用户持久化
type UserRepository interface {
	CreateWithProfile(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByLogin(ctx context.Context, login string) (*User, error)
	// Taken 检查邮箱/用户名是否已被其他用户占用（含软删用户）
	Taken(ctx context.Context, email, username, exceptID string) (emailTaken, usernameTaken bool, err error)
	List(ctx context.Context, q ListQuery, withDeleted bool) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
	Profile(ctx context.Context, userID string) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error
}

// TokenStore refresh token 黑名单
type TokenStore interface {
	// Revoke 插入黑名单，已存在时返回 false
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
