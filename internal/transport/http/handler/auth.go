package handler

import (
	"net/http"
	"strings"

	"fitness-platform/internal/core/auth"
	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
)

// Auth 注册、登录、token 轮换、当前用户与资料
type Auth struct {
	Users *service.UserService
}

func (Auth) Priority() int { return 10 }

type meIn struct {
	Email       *string     `json:"email"`
	Username    *string     `json:"username"`
	FirstName   *string     `json:"first_name"`
	LastName    *string     `json:"last_name"`
	DateOfBirth *domain.Day `json:"date_of_birth"`
}

func (in *meIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("email", in.Email, true, 191)
	f.text("username", in.Username, true, 150)
	f.text("first_name", in.FirstName, false, 150)
	f.text("last_name", in.LastName, false, 150)
	f.past("date_of_birth", in.DateOfBirth)
	return f.errs
}

func (in *meIn) apply(u *domain.User) {
	set(&u.Email, in.Email)
	set(&u.Username, in.Username)
	set(&u.FirstName, in.FirstName)
	set(&u.LastName, in.LastName)
	if in.DateOfBirth != nil {
		d := *in.DateOfBirth
		u.DateOfBirth = &d
		if d.IsZero() {
			u.DateOfBirth = nil
		}
	}
}

type passwordIn struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type deleteMeIn struct {
	CurrentPassword string `json:"current_password" binding:"required"`
}

type loginIn struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

func (in *loginIn) Check(bool) domain.FieldErrors {
	f := check(false)
	if domain.Blank(in.Username) && domain.Blank(in.Email) {
		f.errs.Add("username", msgRequired)
	}
	return f.errs
}

func (in *loginIn) login() string {
	if s := strings.TrimSpace(in.Username); s != "" {
		return s
	}
	return strings.TrimSpace(in.Email)
}

type refreshIn struct {
	Refresh string `json:"refresh" binding:"required"`
}

type verifyIn struct {
	Token string `json:"token" binding:"required"`
}

type profileIn struct {
	Bio         *string `json:"bio"`
	HeightCM    *int    `json:"height_cm"`
	FitnessGoal *string `json:"fitness_goal"`
	AvatarURL   *string `json:"avatar_url"`
}

func (in *profileIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	atLeast(f, "height_cm", in.HeightCM, false, 0)
	if in.FitnessGoal != nil && *in.FitnessGoal != "" {
		f.choice("fitness_goal", in.FitnessGoal, false, domain.FitnessGoals...)
	}
	f.url("avatar_url", in.AvatarURL)
	f.text("avatar_url", in.AvatarURL, false, 500)
	return f.errs
}

func (in *profileIn) apply(p *domain.Profile) {
	set(&p.Bio, in.Bio)
	set(&p.HeightCM, in.HeightCM)
	set(&p.FitnessGoal, in.FitnessGoal)
	set(&p.AvatarURL, in.AvatarURL)
}

func (h Auth) MountAPI(e ez.EZ) {
	e = e.Tag("auth")

	ez.RegisterAction(e, ez.Action[service.RegisterInput, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/auth/users/",
		Binder:  ez.BindJSON,
		Status:  http.StatusCreated,
		Summary: "register a new account",
		Handler: func(c *ez.Ctx, in *service.RegisterInput) (*domain.User, error) {
			return h.Users.Register(c.Request.Context(), *in, domain.RoleUser)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method:  http.MethodGet,
		Path:    "/auth/users/me/",
		Auth:    true,
		Summary: "current user",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.User, error) {
			return h.Users.Me(c.Request.Context(), c.Caller)
		},
	})

	for _, partial := range []bool{false, true} {
		method := http.MethodPut
		if partial {
			method = http.MethodPatch
		}
		ez.RegisterAction(e, ez.Action[meIn, *domain.User]{
			Method:  method,
			Path:    "/auth/users/me/",
			Binder:  ez.BindJSON,
			Auth:    true,
			Partial: partial,
			Summary: "update current user",
			Handler: func(c *ez.Ctx, in *meIn) (*domain.User, error) {
				return h.Users.UpdateMe(c.Request.Context(), c.Caller, in.apply)
			},
		})
	}

	ez.RegisterAction(e, ez.Action[deleteMeIn, struct{}]{
		Method:  http.MethodDelete,
		Path:    "/auth/users/me/",
		Binder:  ez.BindJSON,
		Auth:    true,
		Status:  http.StatusNoContent,
		Summary: "delete current user",
		Handler: func(c *ez.Ctx, in *deleteMeIn) (struct{}, error) {
			return struct{}{}, h.Users.DeleteMe(c.Request.Context(), c.Caller, in.CurrentPassword)
		},
	})

	ez.RegisterAction(e, ez.Action[passwordIn, struct{}]{
		Method:  http.MethodPost,
		Path:    "/auth/users/set_password/",
		Binder:  ez.BindJSON,
		Auth:    true,
		Status:  http.StatusNoContent,
		Summary: "change password",
		Handler: func(c *ez.Ctx, in *passwordIn) (struct{}, error) {
			return struct{}{}, h.Users.SetPassword(c.Request.Context(), c.Caller, in.CurrentPassword, in.NewPassword)
		},
	})

	ez.RegisterAction(e, ez.Action[loginIn, auth.Pair]{
		Method:  http.MethodPost,
		Path:    "/auth/jwt/create/",
		Binder:  ez.BindJSON,
		Summary: "obtain access and refresh tokens",
		Handler: func(c *ez.Ctx, in *loginIn) (auth.Pair, error) {
			return h.Users.Login(c.Request.Context(), in.login(), in.Password)
		},
	})

	ez.RegisterAction(e, ez.Action[refreshIn, auth.Pair]{
		Method:  http.MethodPost,
		Path:    "/auth/jwt/refresh/",
		Binder:  ez.BindJSON,
		Summary: "rotate refresh token",
		Handler: func(c *ez.Ctx, in *refreshIn) (auth.Pair, error) {
			return h.Users.Refresh(c.Request.Context(), in.Refresh)
		},
	})

	ez.RegisterAction(e, ez.Action[verifyIn, struct{}]{
		Method:  http.MethodPost,
		Path:    "/auth/jwt/verify/",
		Binder:  ez.BindJSON,
		Summary: "verify a token",
		Handler: func(c *ez.Ctx, in *verifyIn) (struct{}, error) {
			return struct{}{}, h.Users.Verify(c.Request.Context(), in.Token)
		},
	})

	ez.RegisterAction(e, ez.Action[refreshIn, struct{}]{
		Method:  http.MethodPost,
		Path:    "/auth/jwt/blacklist/",
		Binder:  ez.BindJSON,
		Status:  http.StatusNoContent,
		Summary: "revoke a refresh token",
		Handler: func(c *ez.Ctx, in *refreshIn) (struct{}, error) {
			return struct{}{}, h.Users.Blacklist(c.Request.Context(), in.Refresh)
		},
	})

	p := e.Tag("profile")
	ez.RegisterAction(p, ez.Action[struct{}, *domain.Profile]{
		Method:  http.MethodGet,
		Path:    "/users/profile/",
		Auth:    true,
		Summary: "own profile",
		Handler: func(c *ez.Ctx, _ *struct{}) (*domain.Profile, error) {
			return h.Users.Profile(c.Request.Context(), c.Caller)
		},
	})
	for _, partial := range []bool{false, true} {
		method := http.MethodPut
		if partial {
			method = http.MethodPatch
		}
		ez.RegisterAction(p, ez.Action[profileIn, *domain.Profile]{
			Method:  method,
			Path:    "/users/profile/",
			Binder:  ez.BindJSON,
			Auth:    true,
			Partial: partial,
			Summary: "update own profile",
			Handler: func(c *ez.Ctx, in *profileIn) (*domain.Profile, error) {
				return h.Users.UpdateProfile(c.Request.Context(), c.Caller, in.apply)
			},
		})
	}
}
