package ez

import (
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fitness-platform/internal/domain"
)

// Route 一条已注册接口的描述
type Route struct {
	Method   string       `json:"method"`
	Path     string       `json:"path"`
	Tag      string       `json:"tag,omitempty"`
	Summary  string       `json:"summary,omitempty"`
	Auth     bool         `json:"auth"`
	Roles    []string     `json:"roles,omitempty"`
	Status   int          `json:"status"`
	Query    []string     `json:"query,omitempty"`
	Request  reflect.Type `json:"-"`
	Response reflect.Type `json:"-"`
}

// Catalog 注册时收集的接口目录，用于生成 OpenAPI 与 CLI 输出
type Catalog struct {
	mu     sync.Mutex
	routes []Route
}

func (c *Catalog) Add(r Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = append(c.routes, r)
}

// Routes 按路径、方法排序
func (c *Catalog) Routes() []Route {
	c.mu.Lock()
	out := append([]Route(nil), c.routes...)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// OpenAPI 生成 3.0 文档
func (c *Catalog) OpenAPI(title, version string) map[string]any {
	paths := map[string]map[string]any{}
	for _, r := range c.Routes() {
		p := openAPIPath(r.Path)
		if paths[p] == nil {
			paths[p] = map[string]any{}
		}
		paths[p][strings.ToLower(r.Method)] = operation(r)
	}
	return map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": title, "version": version},
		"paths":   paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
	}
}

// openAPIPath :id -> {id}
func openAPIPath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		if strings.HasPrefix(s, ":") {
			parts[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}

func operation(r Route) map[string]any {
	op := map[string]any{"summary": r.Summary}
	if r.Tag != "" {
		op["tags"] = []string{r.Tag}
	}
	if r.Auth {
		op["security"] = []map[string][]string{{"bearerAuth": {}}}
	}
	var params []map[string]any
	for _, s := range strings.Split(r.Path, "/") {
		if strings.HasPrefix(s, ":") {
			params = append(params, map[string]any{
				"name": s[1:], "in": "path", "required": true, "schema": map[string]any{"type": "string"},
			})
		}
	}
	for _, q := range r.Query {
		params = append(params, map[string]any{"name": q, "in": "query", "schema": map[string]any{"type": "string"}})
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	if r.Request != nil {
		op["requestBody"] = map[string]any{
			"required": true,
			"content":  map[string]any{"application/json": map[string]any{"schema": schemaOf(r.Request, nil)}},
		}
	}
	responses := map[string]any{}
	status := http.StatusText(r.Status)
	if status == "" {
		status = "OK"
	}
	if r.Response != nil {
		envelope := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{"type": "integer"},
				"msg":  map[string]any{"type": "string"},
				"data": schemaOf(r.Response, nil),
			},
		}
		responses[itoa(r.Status)] = map[string]any{
			"description": status,
			"content":     map[string]any{"application/json": map[string]any{"schema": envelope}},
		}
	} else {
		responses[itoa(r.Status)] = map[string]any{"description": status}
	}
	responses["400"] = map[string]any{"description": "validation failed"}
	if r.Auth {
		responses["401"] = map[string]any{"description": "authentication required"}
		responses["403"] = map[string]any{"description": "permission denied"}
	}
	op["responses"] = responses
	return op
}

func itoa(n int) string {
	if n == 0 {
		n = http.StatusOK
	}
	return strconv.Itoa(n)
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	dayType     = reflect.TypeOf(domain.Day{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// schemaOf 根据 json tag 反射出 JSON Schema；seen 防止递归
func schemaOf(t reflect.Type, seen map[reflect.Type]bool) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return map[string]any{"type": "string", "format": "date-time"}
	case dayType:
		return map[string]any{"type": "string", "format": "date"}
	case decimalType:
		return map[string]any{"type": "string", "format": "decimal"}
	}
	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaOf(t.Elem(), seen)}
	case reflect.Map:
		return map[string]any{"type": "object", "additionalProperties": schemaOf(t.Elem(), seen)}
	case reflect.Struct:
		if seen == nil {
			seen = map[reflect.Type]bool{}
		}
		if seen[t] {
			return map[string]any{"type": "object"}
		}
		seen[t] = true
		defer delete(seen, t)
		props := map[string]any{}
		collectProps(t, props, seen)
		return map[string]any{"type": "object", "properties": props}
	}
	return map[string]any{}
}

func collectProps(t reflect.Type, props map[string]any, seen map[reflect.Type]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() && !f.Anonymous {
			continue
		}
		tag := f.Tag.Get("json")
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		// 匿名嵌入且无 json 名：展开
		if f.Anonymous && name == "" && ft.Kind() == reflect.Struct && ft != timeType && ft != dayType {
			collectProps(ft, props, seen)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		props[name] = schemaOf(f.Type, seen)
	}
}
