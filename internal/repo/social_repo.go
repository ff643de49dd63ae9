package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitness-platform/internal/domain"
	"fitness-platform/pkg/utils"
)

// SocialRepo 点赞、关注、挑战参与与排行榜
type SocialRepo struct{ db *gorm.DB }

func NewSocialRepo(db *gorm.DB) *SocialRepo { return &SocialRepo{db: db} }

func (r *SocialRepo) Like(ctx context.Context, userID, postID string) (bool, error) {
	l := domain.Like{UserID: userID, PostID: postID}
	l.ID = utils.NewID()
	res := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&l)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SocialRepo) Unlike(ctx context.Context, userID, postID string) error {
	return conn(ctx, r.db).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&domain.Like{}).Error
}

func (r *SocialRepo) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == followeeID {
		return false, domain.Invalid("user", "you cannot follow yourself")
	}
	f := domain.Follow{FollowerID: followerID, FolloweeID: followeeID}
	f.ID = utils.NewID()
	res := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&f)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SocialRepo) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return conn(ctx, r.db).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&domain.Follow{}).Error
}

// Followers 关注 userID 的用户
func (r *SocialRepo) Followers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.User, int64, error) {
	return r.relation(ctx, "follows.follower_id", "follows.followee_id", userID, q)
}

// Following userID 关注的用户
func (r *SocialRepo) Following(ctx context.Context, userID string, q domain.ListQuery) ([]domain.User, int64, error) {
	return r.relation(ctx, "follows.followee_id", "follows.follower_id", userID, q)
}

func (r *SocialRepo) relation(ctx context.Context, joinCol, whereCol, userID string, q domain.ListQuery) ([]domain.User, int64, error) {
	q.Normalize()
	base := func() *gorm.DB {
		return conn(ctx, r.db).Model(&domain.User{}).
			Joins("JOIN follows ON "+joinCol+" = users.id").
			Where(whereCol+" = ?", userID)
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := make([]domain.User, 0, q.Size)
	err := base().Order("follows.created_at desc").Offset(q.Offset()).Limit(q.Size).Find(&users).Error
	return users, total, err
}

// Join 重复加入不报错
func (r *SocialRepo) Join(ctx context.Context, challengeID, userID string) error {
	tx := conn(ctx, r.db)
	var n int64
	err := tx.Table("challenge_participants").
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).Count(&n).Error
	if err != nil || n > 0 {
		return err
	}
	row := map[string]any{"challenge_id": challengeID, "user_id": userID}
	err = translate(tx.Table("challenge_participants").Create(row).Error)
	if errors.Is(err, domain.ErrConflict) && isDupKey(err) {
		// 并发加入
		return nil
	}
	return err
}

func (r *SocialRepo) Leave(ctx context.Context, challengeID, userID string) error {
	return conn(ctx, r.db).
		Exec("DELETE FROM challenge_participants WHERE challenge_id = ? AND user_id = ?", challengeID, userID).Error
}

const leaderboardSQL = `
SELECT u.id AS user_id, u.username AS username,
       COALESCE(SUM(w.duration), 0) AS total_minutes,
       COUNT(w.id) AS workouts
FROM challenge_participants cp
JOIN users u ON u.id = cp.user_id AND u.deleted_at IS NULL
LEFT JOIN workout_logs w ON w.user_id = u.id AND w.date >= ? AND w.date <= ?
WHERE cp.challenge_id = ?
GROUP BY u.id, u.username
ORDER BY total_minutes DESC, u.username ASC
LIMIT ?`

// Leaderboard 按挑战期间累计训练分钟数排名
func (r *SocialRepo) Leaderboard(ctx context.Context, c *domain.Challenge, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	var rows []domain.LeaderboardEntry
	err := conn(ctx, r.db).Raw(leaderboardSQL, c.StartDate, c.EndDate, c.ID, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
