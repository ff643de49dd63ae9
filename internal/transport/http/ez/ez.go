package ez

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"

	"fitness-platform/internal/domain"
	mdw "fitness-platform/internal/transport/http/middleware"
	resp "fitness-platform/internal/transport/http/response"
)

// Ctx 每个请求一份：gin 上下文 + 当前调用方
type Ctx struct {
	*gin.Context
	Caller domain.Caller
}

// EZ 路由分组 + 接口目录
type EZ struct {
	g   *gin.RouterGroup
	cat *Catalog
	tag string
}

func New(g *gin.RouterGroup, cat *Catalog) EZ {
	if cat == nil {
		cat = &Catalog{}
	}
	return EZ{g: g, cat: cat}
}

// Tag 文档分组
func (e EZ) Tag(tag string) EZ { e.tag = tag; return e }

func (e EZ) Group(path string, mw ...gin.HandlerFunc) EZ {
	e.g = e.g.Group(path, mw...)
	return e
}

func (e EZ) Catalog() *Catalog { return e.cat }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.Query 取
)

// 统一错误对象（配合 resp.Error(int, msg)）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// checker 入参自校验；partial 表示 PATCH
type checker interface {
	Check(partial bool) domain.FieldErrors
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string   // 例："/auth/jwt/create/"、"/store/orders/:id/cancel/"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录
	Roles   []string // 限定角色（可选）
	Partial bool     // 入参按部分更新校验
	NoCheck bool     // 由 Handler 在权限判断之后自行调用 Check
	Status  int      // 成功状态码，默认 200；204 不返回 body
	Summary string
	Query   []string // 文档用：支持的查询参数
	Handler func(c *Ctx, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		ctx := &Ctx{Context: c, Caller: mdw.CallerOf(c)}

		// 1) 鉴权/角色
		if a.Auth || len(a.Roles) > 0 {
			if !ctx.Caller.Authenticated() {
				WriteError(c, domain.ErrUnauthorized)
				return
			}
			if len(a.Roles) > 0 && !domain.OneOf(ctx.Caller.Role, a.Roles...) {
				WriteError(c, domain.ErrForbidden)
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			// 空 body 视为 {}，由 Check 决定缺什么
			if c.Request.ContentLength != 0 {
				if bindErr = c.ShouldBindJSON(&in); errors.Is(bindErr, io.EOF) {
					bindErr = nil
				}
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			WriteError(c, bindError(bindErr))
			return
		}
		if ck, ok := any(&in).(checker); ok && !a.NoCheck {
			if err := ck.Check(a.Partial).Err(); err != nil {
				WriteError(c, err)
				return
			}
		}

		// 3) 执行
		out, err := a.Handler(ctx, &in)

		// 4) 统一错误映射
		if err != nil {
			WriteError(c, err)
			return
		}
		if status == http.StatusNoContent {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(status, resp.OK(out))
	}

	method := strings.ToUpper(a.Method)
	if method == "" {
		method = http.MethodPost
	}
	e.g.Handle(method, a.Path, h)

	r := Route{
		Method:  method,
		Path:    joinPath(e.g.BasePath(), a.Path),
		Tag:     e.tag,
		Summary: a.Summary,
		Auth:    a.Auth || len(a.Roles) > 0,
		Roles:   a.Roles,
		Status:  status,
		Query:   a.Query,
	}
	if a.Binder == BindJSON {
		r.Request = reflect.TypeOf((*I)(nil)).Elem()
	}
	if a.Binder == BindQuery {
		r.Query = append(r.Query, queryNames(reflect.TypeOf((*I)(nil)).Elem())...)
	}
	if status != http.StatusNoContent {
		r.Response = reflect.TypeOf((*O)(nil)).Elem()
	}
	e.cat.Add(r)
}

func joinPath(base, p string) string {
	if base == "/" || base == "" {
		return p
	}
	return strings.TrimSuffix(base, "/") + p
}
