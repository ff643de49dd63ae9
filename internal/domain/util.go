package domain

import (
	"math"
	"net/url"
	"strings"
)

func OneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func Round2(f float64) float64 { return math.Round(f*100) / 100 }

func Blank(s string) bool { return strings.TrimSpace(s) == "" }

// ValidURL 仅接受 http/https 绝对地址
func ValidURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
