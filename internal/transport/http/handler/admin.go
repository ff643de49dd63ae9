package handler

import (
	"net/http"
	"strings"
	"time"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
)

// Admin 管理端接口（分组已要求 admin 角色）
type Admin struct {
	Users *service.UserService
	Store *service.StoreService
}

type userListQ struct {
	Page        int    `form:"page,default=1"`
	PageSize    int    `form:"page_size,default=20"`
	Q           string `form:"q"`            // 按 email/username 模糊搜
	Role        string `form:"role"`         // user / admin
	WithDeleted bool   `form:"with_deleted"` // 是否包含已封禁
}

type userRow struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	Banned    bool       `json:"banned"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

type userListOut struct {
	Total int64     `json:"total"`
	Items []userRow `json:"items"`
}

type roleIn struct {
	Role string `json:"role" binding:"required"`
}

type purgeOut struct {
	Purged int64 `json:"purged"`
}

func (h Admin) MountAdmin(e ez.EZ) {
	e = e.Tag("admin")
	admin := []string{domain.RoleAdmin}

	ez.RegisterAction(e, ez.Action[userListQ, userListOut]{
		Method:  http.MethodGet,
		Path:    "/users",
		Binder:  ez.BindQuery,
		Roles:   admin,
		Summary: "list users",
		Handler: func(c *ez.Ctx, in *userListQ) (userListOut, error) {
			q := domain.ListQuery{Page: in.Page, Size: in.PageSize, Search: strings.TrimSpace(in.Q)}
			if in.Role != "" {
				if !domain.OneOf(in.Role, domain.RoleUser, domain.RoleAdmin) {
					return userListOut{}, domain.Invalid("role", "must be one of user, admin")
				}
				q.Eq("role", in.Role)
			}
			page, err := h.Users.List(c.Request.Context(), q, in.WithDeleted)
			if err != nil {
				return userListOut{}, err
			}
			out := userListOut{Total: page.Total, Items: make([]userRow, 0, len(page.List))}
			for _, u := range page.List {
				out.Items = append(out.Items, userRow{
					ID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role,
					IsActive: u.IsActive, Banned: u.DeletedAt.Valid,
					LastLogin: u.LastLogin, CreatedAt: u.CreatedAt,
				})
			}
			return out, nil
		},
	})

	// 封禁（软删）/ 解封
	for name, fn := range map[string]func(*ez.Ctx, string) error{
		"ban":   func(c *ez.Ctx, id string) error { return h.Users.Ban(c.Request.Context(), id) },
		"unban": func(c *ez.Ctx, id string) error { return h.Users.Unban(c.Request.Context(), id) },
	} {
		ez.RegisterAction(e, ez.Action[struct{}, map[string]string]{
			Method:  http.MethodPost,
			Path:    "/users/:id/" + name,
			Roles:   admin,
			Summary: name + " a user",
			Handler: func(c *ez.Ctx, _ *struct{}) (map[string]string, error) {
				id := c.Param("id")
				if id == c.Caller.UserID && name == "ban" {
					return nil, ez.BadRequest("cannot ban yourself")
				}
				return map[string]string{"id": id}, fn(c, id)
			},
		})
	}

	for name, active := range map[string]bool{"activate": true, "deactivate": false} {
		ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
			Method:  http.MethodPost,
			Path:    "/users/:id/" + name,
			Roles:   admin,
			Summary: name + " a user",
			Handler: func(c *ez.Ctx, _ *struct{}) (*domain.User, error) {
				return h.Users.SetActive(c.Request.Context(), c.Param("id"), active)
			},
		})
	}

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/users/:id/promote",
		Roles:   admin,
		Summary: "grant admin role",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.User, error) {
			return h.Users.SetRole(c.Request.Context(), c.Param("id"), domain.RoleAdmin)
		},
	})
	ez.RegisterAction(e, ez.Action[roleIn, *domain.User]{
		Method:  http.MethodPut,
		Path:    "/users/:id/role",
		Binder:  ez.BindJSON,
		Roles:   admin,
		Summary: "set user role",
		Handler: func(c *ez.Ctx, in *roleIn) (*domain.User, error) {
			return h.Users.SetRole(c.Request.Context(), c.Param("id"), in.Role)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, purgeOut]{
		Method:  http.MethodPost,
		Path:    "/tokens/purge",
		Roles:   admin,
		Summary: "delete expired revoked refresh tokens",
		Handler: func(c *ez.Ctx, _ *struct{}) (purgeOut, error) {
			n, err := h.Users.PurgeTokens(c.Request.Context())
			return purgeOut{Purged: n}, err
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, domain.Page[domain.Order]]{
		Method:  http.MethodGet,
		Path:    "/orders",
		Roles:   admin,
		Summary: "list orders by status",
		Query:   []string{"status", "page", "page_size", "ordering"},
		Handler: func(c *ez.Ctx, _ *struct{}) (domain.Page[domain.Order], error) {
			q, err := ez.ListQuery(c, nil, []string{"created_at", "total_price", "status"})
			if err != nil {
				return domain.Page[domain.Order]{}, err
			}
			return h.Store.ListOrders(c.Request.Context(), c.Caller, c.Query("status"), q)
		},
	})

	ez.RegisterAction(e, ez.Action[statusIn, *domain.Order]{
		Method:  http.MethodPost,
		Path:    "/orders/:id/status",
		Binder:  ez.BindJSON,
		Roles:   admin,
		Summary: "advance order status",
		Handler: func(c *ez.Ctx, in *statusIn) (*domain.Order, error) {
			return h.Store.SetStatus(c.Request.Context(), c.Caller, c.Param("id"), in.Status)
		},
	})
}
