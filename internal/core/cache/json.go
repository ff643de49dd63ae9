package cache

import (
	"context"
	"encoding/json"
	"time"
)

// LoadJSON 读取 JSON 缓存，未命中时回源并写回；缓存内容无法解码时删除后回源
func LoadJSON[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	if !c.Enabled() {
		return load(ctx)
	}
	var fresh *T
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		fresh = v
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	// 本次就是回源方，直接用加载结果
	if fresh != nil {
		return fresh, nil
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		lookups.WithLabelValues(resultCorrupt).Inc()
		_ = c.Del(ctx, key)
		return load(ctx)
	}
	return out, nil
}
