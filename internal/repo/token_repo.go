package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitness-platform/internal/domain"
)

type TokenRepo struct{ db *gorm.DB }

func NewTokenRepo(db *gorm.DB) *TokenRepo { return &TokenRepo{db: db} }

// Revoke 重复作废不报错；返回本次是否新写入，false 表示已被作废过
func (r *TokenRepo) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error) {
	t := domain.RevokedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt}
	res := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&t)
	return res.RowsAffected > 0, res.Error
}

func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.RevokedToken{}).Where("jti = ?", jti).Count(&n).Error
	return n > 0, err
}

// PurgeExpired 清理已过期记录
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := conn(ctx, r.db).Where("expires_at < ?", now).Delete(&domain.RevokedToken{})
	return res.RowsAffected, res.Error
}
