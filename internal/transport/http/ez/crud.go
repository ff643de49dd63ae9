package ez

import (
	"net/http"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
)

// Payload 请求体：自校验并合并到模型
type Payload[T any] interface {
	Check(partial bool) domain.FieldErrors
	Apply(m *T)
}

// defaulter 创建前填充模型默认值
type defaulter interface{ Defaults() }

// 操作
const (
	OpList     = "list"
	OpRetrieve = "retrieve"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
)

type CrudConfig[T any] struct {
	Path     string // 例："/workout/exercises"，生成 /path/ 与 /path/:id/
	Resource *service.Resource[T]
	Name     string // 文档用，如 "exercise"

	Param    string   // 路径参数名，默认 "id"
	Search   []string // 参与 search 的列
	Ordering []string // 允许的 ordering 字段
	Filters  []string // 文档用：额外的查询参数
	Filter   func(c *Ctx, q *domain.ListQuery) error

	Only []string // 只注册部分操作，默认全部
}

func (cfg CrudConfig[T]) allows(op string) bool {
	return len(cfg.Only) == 0 || domain.OneOf(op, cfg.Only...)
}

// Crud 注册 list/create/retrieve/update(PUT+PATCH)/delete；I 为请求体类型
func Crud[T any, I any, PI interface {
	*I
	Payload[T]
}](e EZ, cfg CrudConfig[T]) {
	if cfg.Param == "" {
		cfg.Param = "id"
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Resource.Name
	}
	res := cfg.Resource
	collection := cfg.Path + "/"
	item := cfg.Path + "/:" + cfg.Param + "/"

	if cfg.allows(OpList) {
		query := append([]string{"page", "page_size"}, cfg.Filters...)
		if len(cfg.Search) > 0 {
			query = append(query, "search")
		}
		if len(cfg.Ordering) > 0 {
			query = append(query, "ordering")
		}
		RegisterAction(e, Action[struct{}, domain.Page[T]]{
			Method:  http.MethodGet,
			Path:    collection,
			Binder:  BindNone,
			Summary: "list " + cfg.Name,
			Query:   query,
			Handler: func(c *Ctx, _ *struct{}) (domain.Page[T], error) {
				q, err := ListQuery(c, cfg.Search, cfg.Ordering)
				if err != nil {
					return domain.Page[T]{}, err
				}
				if cfg.Filter != nil {
					if err := cfg.Filter(c, &q); err != nil {
						return domain.Page[T]{}, err
					}
				}
				return res.List(c.Request.Context(), c.Caller, q)
			},
		})
	}

	if cfg.allows(OpCreate) {
		RegisterAction(e, Action[I, *T]{
			Method:  http.MethodPost,
			Path:    collection,
			Binder:  BindJSON,
			Status:  http.StatusCreated,
			NoCheck: true,
			Summary: "create " + cfg.Name,
			Handler: func(c *Ctx, in *I) (*T, error) {
				// 先权限后校验
				if err := c.Caller.Allow(res.Policy.Create); err != nil {
					return nil, err
				}
				if err := PI(in).Check(false).Err(); err != nil {
					return nil, err
				}
				m := new(T)
				if d, ok := any(m).(defaulter); ok {
					d.Defaults()
				}
				PI(in).Apply(m)
				return res.Create(c.Request.Context(), c.Caller, m)
			},
		})
	}

	if cfg.allows(OpRetrieve) {
		RegisterAction(e, Action[struct{}, *T]{
			Method:  http.MethodGet,
			Path:    item,
			Binder:  BindNone,
			Summary: "retrieve " + cfg.Name,
			Handler: func(c *Ctx, _ *struct{}) (*T, error) {
				return res.Retrieve(c.Request.Context(), c.Caller, c.Param(cfg.Param))
			},
		})
	}

	if cfg.allows(OpUpdate) {
		for _, partial := range []bool{false, true} {
			method, summary := http.MethodPut, "replace "
			if partial {
				method, summary = http.MethodPatch, "partial update "
			}
			RegisterAction(e, Action[I, *T]{
				Method:  method,
				Path:    item,
				Binder:  BindJSON,
				Partial: partial,
				NoCheck: true,
				Summary: summary + cfg.Name,
				Handler: func(c *Ctx, in *I) (*T, error) {
					return res.Update(c.Request.Context(), c.Caller, c.Param(cfg.Param), func(m *T) error {
						if err := PI(in).Check(partial).Err(); err != nil {
							return err
						}
						PI(in).Apply(m)
						return nil
					})
				},
			})
		}
	}

	if cfg.allows(OpDelete) {
		RegisterAction(e, Action[struct{}, struct{}]{
			Method:  http.MethodDelete,
			Path:    item,
			Binder:  BindNone,
			Status:  http.StatusNoContent,
			Summary: "delete " + cfg.Name,
			Handler: func(c *Ctx, _ *struct{}) (struct{}, error) {
				return struct{}{}, res.Delete(c.Request.Context(), c.Caller, c.Param(cfg.Param))
			},
		})
	}
}
