package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitness-platform/internal/domain"
	"fitness-platform/pkg/utils"
)

type preload struct {
	name string
	args []any
}

type joinRef struct{ table, column string }

// GormStore 通用单表仓储；列名一律来自代码声明
type GormStore[T any] struct {
	db       *gorm.DB
	selects  string
	preloads []preload
	joins    []joinRef
}

func NewGormStore[T any](db *gorm.DB) *GormStore[T] { return &GormStore[T]{db: db} }

// Preload 读取时预加载关联
func (s *GormStore[T]) Preload(name string, args ...any) *GormStore[T] {
	s.preloads = append(s.preloads, preload{name: name, args: args})
	return s
}

// Select 读取时替换默认的 SELECT *，用于附带聚合列；计数不受影响
func (s *GormStore[T]) Select(query string) *GormStore[T] {
	s.selects = query
	return s
}

// CleanJoin 删除前清理多对多中间表
func (s *GormStore[T]) CleanJoin(table, column string) *GormStore[T] {
	s.joins = append(s.joins, joinRef{table: table, column: column})
	return s
}

func (s *GormStore[T]) DB(ctx context.Context) *gorm.DB { return conn(ctx, s.db) }

func (s *GormStore[T]) withPreloads(q *gorm.DB) *gorm.DB {
	if s.selects != "" {
		q = q.Select(s.selects)
	}
	for _, p := range s.preloads {
		q = q.Preload(p.name, p.args...)
	}
	return q
}

func (s *GormStore[T]) Create(ctx context.Context, m *T) error {
	if e, ok := any(m).(domain.Entity); ok && e.Key() == "" {
		e.AssignID(utils.NewID())
	}
	return translate(conn(ctx, s.db).Omit(clause.Associations).Create(m).Error)
}

func (s *GormStore[T]) Get(ctx context.Context, id string) (*T, error) {
	return s.GetBy(ctx, "id", id)
}

func (s *GormStore[T]) GetBy(ctx context.Context, column string, value any) (*T, error) {
	var m T
	q := s.withPreloads(conn(ctx, s.db)).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if err := q.First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore[T]) scoped(ctx context.Context, q domain.ListQuery) *gorm.DB {
	tx := conn(ctx, s.db).Model(new(T))
	for _, c := range q.Conds {
		tx = tx.Where(condExpr(c))
	}
	if len(q.Or) > 0 {
		groups := make([]clause.Expression, 0, len(q.Or))
		for _, g := range q.Or {
			exprs := make([]clause.Expression, 0, len(g))
			for _, c := range g {
				exprs = append(exprs, condExpr(c))
			}
			groups = append(groups, clause.And(exprs...))
		}
		tx = tx.Where(clause.Or(groups...))
	}
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" && len(q.SearchColumns) > 0 {
		like := "%" + term + "%"
		exprs := make([]clause.Expression, 0, len(q.SearchColumns))
		for _, col := range q.SearchColumns {
			exprs = append(exprs, clause.Expr{SQL: "LOWER(?) LIKE ?", Vars: []any{clause.Column{Name: col}, like}})
		}
		tx = tx.Where(clause.Or(exprs...))
	}
	return tx
}

func condExpr(c domain.Cond) clause.Expression {
	col := clause.Column{Name: c.Column}
	switch c.Op {
	case domain.OpNe:
		return clause.Neq{Column: col, Value: c.Value}
	case domain.OpGte:
		return clause.Gte{Column: col, Value: c.Value}
	case domain.OpLte:
		return clause.Lte{Column: col, Value: c.Value}
	case domain.OpIn:
		var vals []any
		switch v := c.Value.(type) {
		case []string:
			for _, x := range v {
				vals = append(vals, x)
			}
		case []any:
			vals = v
		}
		return clause.IN{Column: col, Values: vals}
	case domain.OpNull:
		return clause.Eq{Column: col, Value: nil}
	case domain.OpInSub:
		sub, _ := c.Value.(domain.Sub)
		return clause.Expr{
			SQL:  "? IN (SELECT ? FROM ? WHERE ?)",
			Vars: []any{col, clause.Column{Name: sub.Select}, clause.Table{Name: sub.Table}, condExpr(sub.Where)},
		}
	default:
		return clause.Eq{Column: col, Value: c.Value}
	}
}

// List 返回当前页与总数
func (s *GormStore[T]) List(ctx context.Context, q domain.ListQuery) ([]T, int64, error) {
	q.Normalize()
	var total int64
	if err := s.scoped(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	tx := s.withPreloads(s.scoped(ctx, q))
	order := q.OrderBy
	if len(order) == 0 {
		order = []string{"-created_at"}
	}
	for _, f := range order {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: strings.TrimPrefix(f, "-")},
			Desc:   strings.HasPrefix(f, "-"),
		})
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	items := make([]T, 0, q.Size)
	if err := tx.Limit(q.Size).Offset(q.Offset()).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Save 全量更新标量字段，关联另行处理
func (s *GormStore[T]) Save(ctx context.Context, m *T) error {
	return translate(conn(ctx, s.db).Omit(clause.Associations).Save(m).Error)
}

func (s *GormStore[T]) Delete(ctx context.Context, id string) error {
	return inTx(ctx, s.db, func(ctx context.Context) error {
		tx := conn(ctx, s.db)
		for _, j := range s.joins {
			err := tx.Exec("DELETE FROM ? WHERE ? = ?", clause.Table{Name: j.table}, clause.Column{Name: j.column}, id).Error
			if err != nil {
				return err
			}
		}
		res := tx.Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).Delete(new(T))
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// DeleteWhere 按条件批量删除
func (s *GormStore[T]) DeleteWhere(ctx context.Context, conds ...domain.Cond) (int64, error) {
	if len(conds) == 0 {
		return 0, nil
	}
	tx := conn(ctx, s.db)
	for _, c := range conds {
		tx = tx.Where(condExpr(c))
	}
	res := tx.Delete(new(T))
	return res.RowsAffected, translate(res.Error)
}

// First 按条件取一条
func (s *GormStore[T]) First(ctx context.Context, conds ...domain.Cond) (*T, error) {
	var m T
	q := s.withPreloads(conn(ctx, s.db))
	for _, c := range conds {
		q = q.Where(condExpr(c))
	}
	if err := q.First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore[T]) Count(ctx context.Context, conds ...domain.Cond) (int64, error) {
	var n int64
	err := s.scoped(ctx, domain.ListQuery{Conds: conds}).Count(&n).Error
	return n, err
}

// Find 按条件取全部，不分页
func (s *GormStore[T]) Find(ctx context.Context, conds ...domain.Cond) ([]T, error) {
	var out []T
	q := s.withPreloads(conn(ctx, s.db))
	for _, c := range conds {
		q = q.Where(condExpr(c))
	}
	err := q.Find(&out).Error
	return out, err
}

func (s *GormStore[T]) Exists(ctx context.Context, conds ...domain.Cond) (bool, error) {
	n, err := s.Count(ctx, conds...)
	return n > 0, err
}

// Replace 替换多对多关联
func (s *GormStore[T]) Replace(ctx context.Context, m *T, assoc string, values any) error {
	return translate(conn(ctx, s.db).Model(m).Association(assoc).Replace(values))
}
