package domain

import (
	"math"
	"strings"
)

type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "<>"
	OpGte  Op = ">="
	OpLte  Op = "<="
	OpIn   Op = "IN"
	OpNull Op = "IS NULL"

	// OpInSub Value 为 Sub
	OpInSub Op = "IN SELECT"
)

// Cond 列条件；Column 只能来自代码声明，不接受用户输入
type Cond struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, v any) Cond { return Cond{Column: column, Op: OpEq, Value: v} }
func Ne(column string, v any) Cond { return Cond{Column: column, Op: OpNe, Value: v} }
func In(column string, v any) Cond { return Cond{Column: column, Op: OpIn, Value: v} }

// Sub column IN (SELECT Select FROM Table WHERE Where)
type Sub struct {
	Table  string
	Select string
	Where  Cond
}

func InSub(column, table, sel string, where Cond) Cond {
	return Cond{Column: column, Op: OpInSub, Value: Sub{Table: table, Select: sel, Where: where}}
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage 保证 Offset 不超过 int32，各数据库都能接受
	MaxPage = math.MaxInt32 / MaxPageSize
)

type ListQuery struct {
	Conds         []Cond
	Or            [][]Cond // 每组内部 AND，组之间 OR，整体与 Conds 做 AND
	Search        string
	SearchColumns []string
	OrderBy       []string // "-created_at" 表示倒序
	Page          int
	Size          int
}

func (q *ListQuery) Where(column string, op Op, v any) *ListQuery {
	q.Conds = append(q.Conds, Cond{Column: column, Op: op, Value: v})
	return q
}

func (q *ListQuery) Eq(column string, v any) *ListQuery { return q.Where(column, OpEq, v) }

// AnyOf 追加一组 OR 条件
func (q *ListQuery) AnyOf(groups ...[]Cond) *ListQuery {
	q.Or = append(q.Or, groups...)
	return q
}

// Normalize 修正分页参数
func (q *ListQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.Size }

// ParseOrdering 校验排序字段，逗号分隔，"-" 前缀表示倒序
func ParseOrdering(raw string, allowed ...string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	ok := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		ok[a] = struct{}{}
	}
	var out []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if _, found := ok[strings.TrimPrefix(f, "-")]; !found {
			return nil, Invalid("ordering", "invalid ordering field: "+f)
		}
		out = append(out, f)
	}
	return out, nil
}

// Page 列表响应
type Page[T any] struct {
	List  []T   `json:"list"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}
