package domain

import (
	"context"

	"gorm.io/gorm"
)

// Post 论坛帖子；非活跃帖子只对作者和管理员可见
type Post struct {
	Base
	UserID     string `gorm:"size:36;not null;index" json:"user_id"`
	User       *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title      string `gorm:"size:255;not null" json:"title"`
	Content    string `gorm:"type:text;not null" json:"content"`
	IsActive   bool   `gorm:"not null;index" json:"is_active"`
	LikesCount int64  `gorm:"->;-:migration" json:"likes_count"` // 只读，由仓储的 Select 子查询填充
}

func (p *Post) OwnerID() string     { return p.UserID }
func (p *Post) SetOwner(uid string) { p.UserID = uid }
func (p *Post) Defaults()           { p.IsActive = true }

type Comment struct {
	Base
	UserID   string `gorm:"size:36;not null;index" json:"user_id"`
	User     *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PostID   string `gorm:"size:36;not null;index" json:"post_id"`
	Post     *Post  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Content  string `gorm:"type:text;not null" json:"content"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}

func (c *Comment) OwnerID() string     { return c.UserID }
func (c *Comment) SetOwner(uid string) { c.UserID = uid }
func (c *Comment) Defaults()           { c.IsActive = true }

// Like (user, post) 唯一
type Like struct {
	Base
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PostID string `gorm:"size:36;not null;uniqueIndex:idx_like_user_post" json:"post_id"`
	Post   *Post  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Follow (follower, followee) 唯一
type Follow struct {
	Base
	FollowerID string `gorm:"size:36;not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	Follower   *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FolloweeID string `gorm:"size:36;not null;uniqueIndex:idx_follow_pair;index" json:"followee_id"`
	Followee   *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Challenge struct {
	Base
	UserID       string `gorm:"size:36;not null;index" json:"user_id"`
	User         *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	StartDate    Day    `gorm:"not null" json:"start_date"`
	EndDate      Day    `gorm:"not null" json:"end_date"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
	Participants []User `gorm:"many2many:challenge_participants" json:"-"`

	// ParticipantIDs 读取时由 Participants 填充；写入时非 nil 则替换关联
	ParticipantIDs []string `gorm:"-" json:"participants"`
}

func (c *Challenge) OwnerID() string     { return c.UserID }
func (c *Challenge) SetOwner(uid string) { c.UserID = uid }
func (c *Challenge) Defaults()           { c.IsActive = true }

func (c *Challenge) AfterFind(*gorm.DB) error {
	c.ParticipantIDs = make([]string, 0, len(c.Participants))
	for _, u := range c.Participants {
		c.ParticipantIDs = append(c.ParticipantIDs, u.ID)
	}
	return nil
}

type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	TotalMinutes int64  `json:"total_minutes"`
	Workouts     int64  `json:"workouts"`
}

// SocialRepository 点赞/关注/挑战参与/排行榜
type SocialRepository interface {
	Like(ctx context.Context, userID, postID string) (created bool, err error)
	Unlike(ctx context.Context, userID, postID string) error
	Follow(ctx context.Context, followerID, followeeID string) (created bool, err error)
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Followers(ctx context.Context, userID string, q ListQuery) ([]User, int64, error)
	Following(ctx context.Context, userID string, q ListQuery) ([]User, int64, error)
	Join(ctx context.Context, challengeID, userID string) error
	Leave(ctx context.Context, challengeID, userID string) error
	Leaderboard(ctx context.Context, c *Challenge, limit int) ([]LeaderboardEntry, error)
}
