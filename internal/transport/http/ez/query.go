package ez

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fitness-platform/internal/domain"
)

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// ListQuery 解析 page/page_size/search/ordering
func ListQuery(c *Ctx, search, ordering []string) (domain.ListQuery, error) {
	q := domain.ListQuery{
		Page:          atoiDefault(c.Query("page"), 1),
		Size:          atoiDefault(c.Query("page_size"), domain.DefaultPageSize),
		Search:        c.Query("search"),
		SearchColumns: search,
	}
	if len(ordering) > 0 {
		order, err := domain.ParseOrdering(c.Query("ordering"), ordering...)
		if err != nil {
			return q, err
		}
		q.OrderBy = order
	} else if c.Query("ordering") != "" {
		return q, domain.Invalid("ordering", "ordering is not supported here")
	}
	q.Normalize()
	return q, nil
}

// QueryBool 接受 1/0/true/false；缺省为 nil
func QueryBool(c *Ctx, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.Invalid(name, "must be one of 1, 0, true, false")
	}
	return &v, nil
}

func QueryDay(c *Ctx, name string) (*domain.Day, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDay(raw)
	if err != nil {
		return nil, domain.Invalid(name, err.Error())
	}
	return &d, nil
}

func QueryDecimal(c *Ctx, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.Invalid(name, "enter a number")
	}
	return &d, nil
}

func QueryInt(c *Ctx, name string, def int) int { return atoiDefault(c.Query(name), def) }

// Range 追加 col >= from / col <= to
func Range(q *domain.ListQuery, column string, from, to any) {
	if !isNil(from) {
		q.Where(column, domain.OpGte, from)
	}
	if !isNil(to) {
		q.Where(column, domain.OpLte, to)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// queryNames 从 form tag 取查询参数名（文档用）
func queryNames(t reflect.Type) []string {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]; name != "" && name != "-" {
			out = append(out, name)
		}
	}
	return out
}
