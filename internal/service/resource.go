package service

import (
	"context"
	"time"

	"fitness-platform/internal/core/cache"
	"fitness-platform/internal/domain"
)

// Store 单表仓储，repo.GormStore 实现
type Store[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
	GetBy(ctx context.Context, column string, value any) (*T, error)
	List(ctx context.Context, q domain.ListQuery) ([]T, int64, error)
	Create(ctx context.Context, m *T) error
	Save(ctx context.Context, m *T) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, conds ...domain.Cond) (bool, error)
}

type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Policy 声明式权限
type Policy struct {
	List   domain.Access
	Read   domain.Access
	Create domain.Access
	Write  domain.Access // 更新与删除

	// OwnerOnly 非管理员只能看到自己的记录
	OwnerOnly   bool
	OwnerColumn string // 默认 user_id
}

type Hooks[T any] struct {
	// ScopeList 追加列表条件（可见性过滤等）
	ScopeList func(ctx context.Context, c domain.Caller, q *domain.ListQuery)
	// Visible 单条读取时判断，不可见按不存在处理
	Visible func(c domain.Caller, m *T) bool
	// Validate 写入前；创建时 prev 为 nil
	Validate func(ctx context.Context, m, prev *T) error
	// AfterSave 同一事务内，处理关联
	AfterSave    func(ctx context.Context, m *T) error
	BeforeDelete func(ctx context.Context, m *T) error
}

// Resource 通用 CRUD：列表/详情/创建/更新/删除
type Resource[T any] struct {
	Name   string
	Store  Store[T]
	Tx     Transactor
	Policy Policy
	Hooks  Hooks[T]

	// Lookup 详情查找列，默认 id
	Lookup string

	// Cache 仅用于按 id 查找的公共目录
	Cache    *cache.Cache
	CacheTTL time.Duration
}

func (r *Resource[T]) lookup() string {
	if r.Lookup == "" {
		return "id"
	}
	return r.Lookup
}

func (r *Resource[T]) ownerColumn() string {
	if r.Policy.OwnerColumn == "" {
		return "user_id"
	}
	return r.Policy.OwnerColumn
}

func ownerOf(m any) (string, bool) {
	if o, ok := m.(domain.Owned); ok {
		return o.OwnerID(), true
	}
	return "", false
}

func keyOf(m any) string {
	if e, ok := m.(domain.Entity); ok {
		return e.Key()
	}
	return ""
}

func (r *Resource[T]) visible(c domain.Caller, m *T) bool {
	if r.Policy.OwnerOnly && !c.IsAdmin() {
		owner, ok := ownerOf(m)
		if !ok || !c.Owns(owner) {
			return false
		}
	}
	if r.Hooks.Visible != nil {
		return r.Hooks.Visible(c, m)
	}
	return true
}

func (r *Resource[T]) cacheKey(key string) string { return r.Name + ":" + key }

func (r *Resource[T]) List(ctx context.Context, c domain.Caller, q domain.ListQuery) (domain.Page[T], error) {
	if err := c.Allow(r.Policy.List); err != nil {
		return domain.Page[T]{}, err
	}
	if r.Policy.OwnerOnly && !c.IsAdmin() {
		q.Eq(r.ownerColumn(), c.UserID)
	}
	if r.Hooks.ScopeList != nil {
		r.Hooks.ScopeList(ctx, c, &q)
	}
	q.Normalize()
	items, total, err := r.Store.List(ctx, q)
	if err != nil {
		return domain.Page[T]{}, err
	}
	return domain.Page[T]{List: items, Total: total, Page: q.Page, Size: q.Size}, nil
}

func (r *Resource[T]) load(ctx context.Context, key string) (*T, error) {
	if r.Cache.Enabled() {
		return cache.LoadJSON(ctx, r.Cache, r.cacheKey(key), r.CacheTTL, func(ctx context.Context) (*T, error) {
			return r.Store.GetBy(ctx, r.lookup(), key)
		})
	}
	return r.Store.GetBy(ctx, r.lookup(), key)
}

// Retrieve 不存在或不可见均返回 ErrNotFound
func (r *Resource[T]) Retrieve(ctx context.Context, c domain.Caller, key string) (*T, error) {
	if err := c.Allow(r.Policy.Read); err != nil {
		return nil, err
	}
	m, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !r.visible(c, m) {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// Writable 取出调用方可修改的记录：非所有者返回 ErrForbidden
func (r *Resource[T]) Writable(ctx context.Context, c domain.Caller, key string) (*T, error) {
	if err := c.Allow(r.Policy.Write); err != nil {
		return nil, err
	}
	m, err := r.Store.GetBy(ctx, r.lookup(), key)
	if err != nil {
		return nil, err
	}
	if r.Policy.Write == domain.AccessOwner && !c.IsAdmin() {
		owner, _ := ownerOf(m)
		if !c.Owns(owner) {
			return nil, domain.ErrForbidden
		}
	}
	return m, nil
}

// Create m 已由请求体填充，归属由调用方决定
func (r *Resource[T]) Create(ctx context.Context, c domain.Caller, m *T) (*T, error) {
	if err := c.Allow(r.Policy.Create); err != nil {
		return nil, err
	}
	if o, ok := any(m).(domain.Owned); ok && c.Authenticated() {
		o.SetOwner(c.UserID)
	}
	if r.Hooks.Validate != nil {
		if err := r.Hooks.Validate(ctx, m, nil); err != nil {
			return nil, err
		}
	}
	err := r.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := r.Store.Create(ctx, m); err != nil {
			return err
		}
		if r.Hooks.AfterSave != nil {
			return r.Hooks.AfterSave(ctx, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Store.Get(ctx, keyOf(m))
}

// Update mutate 把请求体合并进记录；id 与归属不可改
func (r *Resource[T]) Update(ctx context.Context, c domain.Caller, key string, mutate func(m *T) error) (*T, error) {
	m, err := r.Writable(ctx, c, key)
	if err != nil {
		return nil, err
	}
	return r.Save(ctx, m, mutate)
}

// Save 对已取出的记录应用修改并保存
func (r *Resource[T]) Save(ctx context.Context, m *T, mutate func(m *T) error) (*T, error) {
	prev := *m
	id := keyOf(m)
	owner, owned := ownerOf(m)
	if err := mutate(m); err != nil {
		return nil, err
	}
	if e, ok := any(m).(domain.Entity); ok {
		e.AssignID(id)
	}
	if o, ok := any(m).(domain.Owned); ok && owned && owner != "" {
		o.SetOwner(owner)
	}
	if r.Hooks.Validate != nil {
		if err := r.Hooks.Validate(ctx, m, &prev); err != nil {
			return nil, err
		}
	}
	err := r.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := r.Store.Save(ctx, m); err != nil {
			return err
		}
		if r.Hooks.AfterSave != nil {
			return r.Hooks.AfterSave(ctx, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.evict(ctx, &prev)
	return r.Store.Get(ctx, id)
}

func (r *Resource[T]) Delete(ctx context.Context, c domain.Caller, key string) error {
	m, err := r.Writable(ctx, c, key)
	if err != nil {
		return err
	}
	err = r.Tx.InTx(ctx, func(ctx context.Context) error {
		if r.Hooks.BeforeDelete != nil {
			if err := r.Hooks.BeforeDelete(ctx, m); err != nil {
				return err
			}
		}
		return r.Store.Delete(ctx, keyOf(m))
	})
	if err != nil {
		return err
	}
	r.evict(ctx, m)
	return nil
}

func (r *Resource[T]) evict(ctx context.Context, m *T) {
	if !r.Cache.Enabled() {
		return
	}
	// 只缓存按 id 查找的资源
	_ = r.Cache.Del(ctx, r.cacheKey(keyOf(m)))
}

// Exists 校验外键存在性
func (r *Resource[T]) Exists(ctx context.Context, id string) (bool, error) {
	return r.Store.Exists(ctx, domain.Cond{Column: "id", Op: domain.OpEq, Value: id})
}
