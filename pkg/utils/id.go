package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NewID 生成主键（UUID v4 字符串）
func NewID() string { return uuid.NewString() }

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 生成 URL 友好的标识：小写、非字母数字折叠为 "-"
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 200 {
		s = strings.TrimRight(s[:200], "-")
	}
	return s
}
