package handler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fitness-platform/internal/domain"
)

// 请求体字段均为指针：nil 表示未提供（PATCH 时保持原值）

const msgRequired = "this field is required"

// set 提供了才覆盖
func set[V any](dst *V, src *V) {
	if src != nil {
		*dst = *src
	}
}

// setIDs 提供了（含空数组）才替换，结果非 nil
func setIDs(dst *[]string, src *[]string) {
	if src != nil {
		*dst = append([]string{}, (*src)...)
	}
}

// fields 字段校验器；partial 时跳过必填检查
type fields struct {
	errs    domain.FieldErrors
	partial bool
}

func check(partial bool) *fields { return &fields{errs: domain.FieldErrors{}, partial: partial} }

func (f *fields) add(field, format string, args ...any) {
	f.errs.Add(field, fmt.Sprintf(format, args...))
}

// required 全量校验时缺失即报错，返回值是否已提供
func (f *fields) required(field string, present bool) bool {
	if !present && !f.partial {
		f.errs.Add(field, msgRequired)
	}
	return present
}

// text 必填时不允许空白；max<=0 不限长度
func (f *fields) text(field string, v *string, required bool, max int) {
	if v == nil {
		if required {
			f.required(field, false)
		}
		return
	}
	if required && domain.Blank(*v) {
		f.errs.Add(field, "this field may not be blank")
		return
	}
	if max > 0 && utf8.RuneCountInString(*v) > max {
		f.add(field, "ensure this field has no more than %d characters", max)
	}
}

func (f *fields) choice(field string, v *string, required bool, options ...string) {
	if v == nil {
		if required {
			f.required(field, false)
		}
		return
	}
	if !domain.OneOf(*v, options...) {
		f.add(field, "%q is not a valid choice, expected one of %s", *v, strings.Join(options, ", "))
	}
}

func (f *fields) url(field string, v *string) {
	if v != nil && *v != "" && !domain.ValidURL(*v) {
		f.errs.Add(field, "enter a valid URL")
	}
}

// past 日期必须早于今天
func (f *fields) past(field string, v *domain.Day) {
	if v != nil && !v.IsZero() && !v.Before(domain.Today()) {
		f.errs.Add(field, "must be in the past")
	}
}

func (f *fields) ids(field string, v *[]string) {
	if v == nil {
		return
	}
	for _, id := range *v {
		if domain.Blank(id) {
			f.errs.Add(field, "may not contain blank ids")
			return
		}
	}
}

type number interface{ ~int | ~int64 | ~float64 }

// atLeast v >= min
func atLeast[N number](f *fields, field string, v *N, required bool, min N) {
	if v == nil {
		if required {
			f.required(field, false)
		}
		return
	}
	if *v < min {
		f.add(field, "ensure this value is greater than or equal to %v", min)
	}
}

// above v > min
func above[N number](f *fields, field string, v *N, required bool, min N) {
	if v == nil {
		if required {
			f.required(field, false)
		}
		return
	}
	if *v <= min {
		f.add(field, "ensure this value is greater than %v", min)
	}
}

// atMost v <= max，仅在已提供时检查
func atMost[N number](f *fields, field string, v *N, max N) {
	if v != nil && *v > max {
		f.add(field, "ensure this value is less than or equal to %v", max)
	}
}

// money 非负且最多两位小数
func (f *fields) money(field string, v *decimal.Decimal, required bool) {
	if v == nil {
		if required {
			f.required(field, false)
		}
		return
	}
	if v.IsNegative() {
		f.errs.Add(field, "ensure this value is greater than or equal to 0")
	}
	if v.Exponent() < -2 && !v.Equal(v.Round(2)) {
		f.errs.Add(field, "ensure that there are no more than 2 decimal places")
	}
	if v.GreaterThanOrEqual(decimal.New(1, 8)) {
		f.errs.Add(field, "ensure that there are no more than 10 digits in total")
	}
}
