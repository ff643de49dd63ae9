package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitness-platform/internal/domain"
	"fitness-platform/pkg/utils"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// CreateWithProfile 用户与资料同事务创建
func (r *UserRepo) CreateWithProfile(ctx context.Context, u *domain.User) error {
	return inTx(ctx, r.db, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		if u.ID == "" {
			u.ID = utils.NewID()
		}
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return translate(err)
		}
		p := &domain.Profile{UserID: u.ID}
		p.ID = utils.NewID()
		if err := tx.Create(p).Error; err != nil {
			return translate(err)
		}
		u.Profile = p
		return nil
	})
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindByLogin 按邮箱（忽略大小写）或用户名查找
func (r *UserRepo) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	var u domain.User
	login = strings.TrimSpace(login)
	err := conn(ctx, r.db).
		Where("LOWER(email) = ? OR username = ?", strings.ToLower(login), login).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) Taken(ctx context.Context, email, username, exceptID string) (bool, bool, error) {
	count := func(where string, v string) (bool, error) {
		var n int64
		q := conn(ctx, r.db).Unscoped().Model(&domain.User{}).Where(where, v)
		if exceptID != "" {
			q = q.Where("id <> ?", exceptID)
		}
		err := q.Count(&n).Error
		return n > 0, err
	}
	var emailTaken, nameTaken bool
	var err error
	if email != "" {
		if emailTaken, err = count("LOWER(email) = ?", strings.ToLower(email)); err != nil {
			return false, false, err
		}
	}
	if username != "" {
		if nameTaken, err = count("username = ?", username); err != nil {
			return false, false, err
		}
	}
	return emailTaken, nameTaken, nil
}

func (r *UserRepo) List(ctx context.Context, q domain.ListQuery, withDeleted bool) ([]domain.User, int64, error) {
	q.Normalize()
	tx := conn(ctx, r.db).Model(&domain.User{})
	if withDeleted {
		tx = tx.Unscoped()
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ?", like, like)
	}
	for _, c := range q.Conds {
		tx = tx.Where(condExpr(c))
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := tx.Order("created_at desc").Offset(q.Offset()).Limit(q.Size).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Save(u).Error)
}

// SoftDelete 封禁
func (r *UserRepo) SoftDelete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// HardDelete 注销账号，关联数据由外键级联删除
func (r *UserRepo) HardDelete(ctx context.Context, id string) error {
	return inTx(ctx, r.db, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		if err := tx.Exec("DELETE FROM challenge_participants WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("id = ?", id).Delete(&domain.User{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// Restore 撤销软删
func (r *UserRepo) Restore(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Unscoped().Model(&domain.User{}).Where("id = ?", id).Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := conn(ctx, r.db).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *UserRepo) SaveProfile(ctx context.Context, p *domain.Profile) error {
	return translate(conn(ctx, r.db).Save(p).Error)
}
