package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fitness-platform/internal/core/auth"
	"fitness-platform/internal/core/cache"
	"fitness-platform/internal/domain"
	"fitness-platform/internal/repo"
)

// Deps 服务层依赖
type Deps struct {
	DB       *gorm.DB
	JWT      *auth.JWTer
	Cache    *cache.Cache // 可为 nil
	CacheTTL time.Duration
	Log      *zap.Logger
}

// Services 所有业务服务
type Services struct {
	Users     *UserService
	Workout   *WorkoutService
	Nutrition *NutritionService
	Progress  *ProgressService
	Community *CommunityService
	Content   *ContentService
	Store     *StoreService
}

func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 5 * time.Minute
	}
	tx := repo.NewTransactor(d.DB)
	users := repo.NewUserRepo(d.DB)
	return &Services{
		Users:     NewUserService(users, repo.NewTokenRepo(d.DB), d.JWT, tx, d.Log),
		Workout:   NewWorkoutService(d.DB, tx),
		Nutrition: NewNutritionService(d.DB, tx),
		Progress:  NewProgressService(d.DB, tx),
		Community: NewCommunityService(d.DB, tx, users),
		Content:   NewContentService(d.DB, tx),
		Store:     NewStoreService(d.DB, tx, d.Cache, d.CacheTTL, d.Log),
	}
}

// catalog 管理员维护、登录可读的目录类资源
var catalog = Policy{
	List:   domain.AccessAuthenticated,
	Read:   domain.AccessAuthenticated,
	Create: domain.AccessAdmin,
	Write:  domain.AccessAdmin,
}

// ownerOnly 仅所有者（及管理员）可见可改
var ownerOnly = Policy{
	List:      domain.AccessAuthenticated,
	Read:      domain.AccessAuthenticated,
	Create:    domain.AccessAuthenticated,
	Write:     domain.AccessOwner,
	OwnerOnly: true,
}

// shared 登录可读，所有者可改
var shared = Policy{
	List:   domain.AccessAuthenticated,
	Read:   domain.AccessAuthenticated,
	Create: domain.AccessAuthenticated,
	Write:  domain.AccessOwner,
}

// public 匿名可读，登录可建，所有者可改
var public = Policy{
	List:   domain.AccessPublic,
	Read:   domain.AccessPublic,
	Create: domain.AccessAuthenticated,
	Write:  domain.AccessOwner,
}

func newResource[T any](name string, st *repo.GormStore[T], tx Transactor, p Policy) *Resource[T] {
	return &Resource[T]{Name: name, Store: st, Tx: tx, Policy: p}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type counter interface {
	Count(ctx context.Context, conds ...domain.Cond) (int64, error)
}

// checkIDs 所有 id 必须存在
func checkIDs(ctx context.Context, st counter, field string, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	n, err := st.Count(ctx, domain.In("id", ids))
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		return domain.Invalid(field, "invalid pk, object does not exist")
	}
	return nil
}

// checkFK 单个外键必须存在
func checkFK(ctx context.Context, st counter, field, id string) error {
	if id == "" {
		return domain.Invalid(field, "this field is required")
	}
	n, err := st.Count(ctx, domain.Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Invalid(field, "invalid pk \""+id+"\", object does not exist")
	}
	return nil
}
