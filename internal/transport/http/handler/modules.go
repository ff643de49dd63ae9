package handler

import "fitness-platform/internal/service"

// Modules 所有业务模块，交给 router.Registry 挂载
func Modules(s *service.Services) []any {
	return []any{
		Auth{Users: s.Users},
		Workout{S: s.Workout},
		Nutrition{S: s.Nutrition},
		Progress{S: s.Progress},
		Community{S: s.Community},
		Content{S: s.Content},
		Store{S: s.Store},
		Admin{Users: s.Users, Store: s.Store},
	}
}
