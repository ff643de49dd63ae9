package handler

import (
	"net/http"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
)

type Community struct {
	S *service.CommunityService
}

type postIn struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsActive *bool   `json:"is_active"`
}

func (in *postIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("title", in.Title, true, 255)
	f.text("content", in.Content, true, 0)
	return f.errs
}

func (in *postIn) Apply(m *domain.Post) {
	set(&m.Title, in.Title)
	set(&m.Content, in.Content)
	set(&m.IsActive, in.IsActive)
}

type commentIn struct {
	PostID   *string `json:"post_id"`
	Content  *string `json:"content"`
	IsActive *bool   `json:"is_active"`
}

func (in *commentIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("post_id", in.PostID, true, 36)
	f.text("content", in.Content, true, 0)
	return f.errs
}

func (in *commentIn) Apply(m *domain.Comment) {
	set(&m.PostID, in.PostID)
	set(&m.Content, in.Content)
	set(&m.IsActive, in.IsActive)
}

type challengeIn struct {
	Name         *string     `json:"name"`
	Description  *string     `json:"description"`
	StartDate    *domain.Day `json:"start_date"`
	EndDate      *domain.Day `json:"end_date"`
	IsActive     *bool       `json:"is_active"`
	Participants *[]string   `json:"participants"`
}

func (in *challengeIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("name", in.Name, true, 255)
	if f.required("start_date", in.StartDate != nil) && in.StartDate.IsZero() {
		f.errs.Add("start_date", msgRequired)
	}
	if f.required("end_date", in.EndDate != nil) && in.EndDate.IsZero() {
		f.errs.Add("end_date", msgRequired)
	}
	f.ids("participants", in.Participants)
	return f.errs
}

func (in *challengeIn) Apply(m *domain.Challenge) {
	set(&m.Name, in.Name)
	set(&m.Description, in.Description)
	set(&m.StartDate, in.StartDate)
	set(&m.EndDate, in.EndDate)
	set(&m.IsActive, in.IsActive)
	// 读取时由关联回填，未提供则不替换
	m.ParticipantIDs = nil
	setIDs(&m.ParticipantIDs, in.Participants)
}

type followOut struct {
	Following bool `json:"following"`
	Created   bool `json:"created"`
}

func activeFilter(c *ez.Ctx, q *domain.ListQuery) error {
	active, err := ez.QueryBool(c, "is_active")
	if err != nil {
		return err
	}
	if active != nil {
		q.Eq("is_active", *active)
	}
	return nil
}

func (h Community) MountAPI(e ez.EZ) {
	e = e.Tag("community")

	ez.Crud[domain.Post, postIn](e, ez.CrudConfig[domain.Post]{
		Path:     "/community/posts",
		Resource: h.S.Posts,
		Search:   []string{"title", "content"},
		Ordering: []string{"created_at", "title"},
		Filters:  []string{"is_active", "user"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			if v := c.Query("user"); v != "" {
				q.Eq("user_id", v)
			}
			return activeFilter(c, q)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Post]{
		Method:  http.MethodPost,
		Path:    "/community/posts/:id/toggle-active/",
		Auth:    true,
		Summary: "toggle post visibility",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.Post, error) {
			return h.S.ToggleActive(c.Request.Context(), c.Caller, c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, service.LikeResult]{
		Method:  http.MethodPost,
		Path:    "/community/posts/:id/like/",
		Auth:    true,
		Summary: "like a post",
		Handler: func(c *ez.Ctx, _ *struct{}) (service.LikeResult, error) {
			return h.S.Like(c.Request.Context(), c.Caller, c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, struct{}]{
		Method:  http.MethodDelete,
		Path:    "/community/posts/:id/like/",
		Auth:    true,
		Status:  http.StatusNoContent,
		Summary: "remove like",
		Handler: func(c *ez.Ctx, _ *struct{}) (struct{}, error) {
			return struct{}{}, h.S.Unlike(c.Request.Context(), c.Caller, c.Param("id"))
		},
	})

	ez.Crud[domain.Comment, commentIn](e, ez.CrudConfig[domain.Comment]{
		Path:     "/community/comments",
		Resource: h.S.Comments,
		Search:   []string{"content"},
		Ordering: []string{"created_at"},
		Filters:  []string{"post", "is_active"},
		Filter: func(c *ez.Ctx, q *domain.ListQuery) error {
			if v := c.Query("post"); v != "" {
				q.Eq("post_id", v)
			}
			return activeFilter(c, q)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, followOut]{
		Method:  http.MethodPost,
		Path:    "/community/users/:id/follow/",
		Auth:    true,
		Summary: "follow a user",
		Handler: func(c *ez.Ctx, _ *struct{}) (followOut, error) {
			created, err := h.S.Follow(c.Request.Context(), c.Caller, c.Param("id"))
			return followOut{Following: err == nil, Created: created}, err
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, struct{}]{
		Method:  http.MethodDelete,
		Path:    "/community/users/:id/follow/",
		Auth:    true,
		Status:  http.StatusNoContent,
		Summary: "unfollow a user",
		Handler: func(c *ez.Ctx, _ *struct{}) (struct{}, error) {
			return struct{}{}, h.S.Unfollow(c.Request.Context(), c.Caller, c.Param("id"))
		},
	})

	relations := map[string]func(*ez.Ctx, string, domain.ListQuery) (domain.Page[domain.User], error){
		"followers": func(c *ez.Ctx, id string, q domain.ListQuery) (domain.Page[domain.User], error) {
			return h.S.Followers(c.Request.Context(), c.Caller, id, q)
		},
		"following": func(c *ez.Ctx, id string, q domain.ListQuery) (domain.Page[domain.User], error) {
			return h.S.Following(c.Request.Context(), c.Caller, id, q)
		},
	}
	for name, fn := range relations {
		ez.RegisterAction(e, ez.Action[struct{}, domain.Page[domain.User]]{
			Method:  http.MethodGet,
			Path:    "/community/users/:id/" + name + "/",
			Auth:    true,
			Summary: "list " + name,
			Query:   []string{"page", "page_size", "search"},
			Handler: func(c *ez.Ctx, _ *struct{}) (domain.Page[domain.User], error) {
				q, err := ez.ListQuery(c, []string{"username", "first_name", "last_name"}, nil)
				if err != nil {
					return domain.Page[domain.User]{}, err
				}
				return fn(c, c.Param("id"), q)
			},
		})
	}

	ez.Crud[domain.Challenge, challengeIn](e, ez.CrudConfig[domain.Challenge]{
		Path:     "/community/challenges",
		Resource: h.S.Challenges,
		Search:   []string{"name", "description"},
		Ordering: []string{"start_date", "end_date", "created_at", "name"},
		Filters:  []string{"is_active"},
		Filter:   activeFilter,
	})

	for name, fn := range map[string]func(*ez.Ctx) (*domain.Challenge, error){
		"join": func(c *ez.Ctx) (*domain.Challenge, error) {
			return h.S.Join(c.Request.Context(), c.Caller, c.Param("id"))
		},
		"leave": func(c *ez.Ctx) (*domain.Challenge, error) {
			return h.S.Leave(c.Request.Context(), c.Caller, c.Param("id"))
		},
	} {
		ez.RegisterAction(e, ez.Action[struct{}, *domain.Challenge]{
			Method:  http.MethodPost,
			Path:    "/community/challenges/:id/" + name + "/",
			Auth:    true,
			Summary: name + " a challenge",
			Handler: func(c *ez.Ctx, _ *struct{}) (*domain.Challenge, error) { return fn(c) },
		})
	}

	ez.RegisterAction(e, ez.Action[struct{}, []domain.LeaderboardEntry]{
		Method:  http.MethodGet,
		Path:    "/community/challenges/:id/leaderboard/",
		Summary: "participants ranked by minutes trained during the challenge",
		Query:   []string{"limit"},
		Handler: func(c *ez.Ctx, _ *struct{}) ([]domain.LeaderboardEntry, error) {
			return h.S.Leaderboard(c.Request.Context(), c.Caller, c.Param("id"), ez.QueryInt(c, "limit", 10))
		},
	})
}
