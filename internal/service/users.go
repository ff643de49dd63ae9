package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"fitness-platform/internal/core/auth"
	"fitness-platform/internal/domain"
	"fitness-platform/pkg/utils"
)

var validate = validator.New()

const minPasswordLen = 8

var errBadCredentials = fmt.Errorf("%w: no active account found with the given credentials", domain.ErrUnauthorized)

// RegisterInput 注册参数
type RegisterInput struct {
	Email       string      `json:"email" binding:"required"`
	Username    string      `json:"username" binding:"required,max=150"`
	Password    string      `json:"password" binding:"required"`
	FirstName   string      `json:"first_name" binding:"max=150"`
	LastName    string      `json:"last_name" binding:"max=150"`
	DateOfBirth *domain.Day `json:"date_of_birth"`
}

func (in *RegisterInput) Check(bool) domain.FieldErrors {
	errs := domain.FieldErrors{}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	checkEmail(errs, in.Email)
	checkUsername(errs, in.Username)
	checkPassword(errs, "password", in.Password)
	checkBirth(errs, "date_of_birth", in.DateOfBirth)
	return errs
}

func checkEmail(errs domain.FieldErrors, email string) {
	if err := validate.Var(email, "required,email,max=191"); err != nil {
		errs.Add("email", "enter a valid email address")
	}
}

func checkUsername(errs domain.FieldErrors, username string) {
	if err := validate.Var(username, "required,max=150"); err != nil || strings.ContainsAny(username, " \t/") {
		errs.Add("username", "enter a valid username")
	}
}

func checkPassword(errs domain.FieldErrors, field, pw string) {
	if len(pw) < minPasswordLen {
		errs.Add(field, fmt.Sprintf("must contain at least %d characters", minPasswordLen))
	}
}

func checkBirth(errs domain.FieldErrors, field string, d *domain.Day) {
	if d != nil && !d.IsZero() && !d.Before(domain.Today()) {
		errs.Add(field, "must be in the past")
	}
}

type UserRepo interface {
	domain.UserRepository
	Restore(ctx context.Context, id string) error
}

// UserService 注册、登录、token 轮换与账户管理
type UserService struct {
	users  UserRepo
	tokens domain.TokenStore
	jwt    *auth.JWTer
	tx     Transactor
	log    *zap.Logger
}

func NewUserService(users UserRepo, tokens domain.TokenStore, jwt *auth.JWTer, tx Transactor, l *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, jwt: jwt, tx: tx, log: l}
}

func (s *UserService) ensureUnique(ctx context.Context, email, username, exceptID string) error {
	emailTaken, nameTaken, err := s.users.Taken(ctx, email, username, exceptID)
	if err != nil {
		return err
	}
	errs := domain.FieldErrors{}
	if emailTaken {
		errs.Add("email", "user with this email already exists")
	}
	if nameTaken {
		errs.Add("username", "a user with that username already exists")
	}
	return errs.Err()
}

// Register 创建用户及其资料
func (s *UserService) Register(ctx context.Context, in RegisterInput, role string) (*domain.User, error) {
	if err := in.Check(false).Err(); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.Email, in.Username, ""); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if role == "" {
		role = domain.RoleUser
	}
	u := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		DateOfBirth:  in.DateOfBirth,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.CreateWithProfile(ctx, u); err != nil {
		return nil, err
	}
	usersRegistered.Inc()
	s.log.Info("user registered", zap.String("uid", u.ID), zap.String("role", role))
	return u, nil
}

// Login 用户名或邮箱 + 密码
func (s *UserService) Login(ctx context.Context, login, password string) (auth.Pair, error) {
	u, err := s.users.FindByLogin(ctx, login)
	if errors.Is(err, domain.ErrNotFound) {
		return auth.Pair{}, errBadCredentials
	}
	if err != nil {
		return auth.Pair{}, err
	}
	if !u.IsActive || !utils.CheckPassword(password, u.PasswordHash) {
		return auth.Pair{}, errBadCredentials
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	if err := s.users.Update(ctx, u); err != nil {
		return auth.Pair{}, err
	}
	return s.jwt.IssuePair(u.ID, u.Role)
}

func (s *UserService) refreshClaims(ctx context.Context, token string) (*auth.Claims, error) {
	c, err := s.jwt.ParseType(token, auth.TypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: token is invalid or expired", domain.ErrUnauthorized)
	}
	revoked, err := s.tokens.IsRevoked(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token is blacklisted", domain.ErrUnauthorized)
	}
	return c, nil
}

// Refresh 旧 refresh token 作废并签发新的一对
func (s *UserService) Refresh(ctx context.Context, refresh string) (auth.Pair, error) {
	c, err := s.refreshClaims(ctx, refresh)
	if err != nil {
		return auth.Pair{}, err
	}
	u, err := s.active(ctx, c.UID)
	if err != nil {
		return auth.Pair{}, err
	}
	var pair auth.Pair
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		fresh, err := s.tokens.Revoke(ctx, c.ID, u.ID, c.ExpiresAt.Time)
		if err != nil {
			return err
		}
		// 并发刷新时只有一个请求能写入黑名单
		if !fresh {
			return fmt.Errorf("%w: token is blacklisted", domain.ErrUnauthorized)
		}
		var e error
		pair, e = s.jwt.IssuePair(u.ID, u.Role)
		return e
	})
	return pair, err
}

// Verify 任意类型的有效 token
func (s *UserService) Verify(ctx context.Context, token string) error {
	c, err := s.jwt.Parse(token)
	if err != nil {
		return fmt.Errorf("%w: token is invalid or expired", domain.ErrUnauthorized)
	}
	if c.Type == auth.TypeRefresh {
		revoked, err := s.tokens.IsRevoked(ctx, c.ID)
		if err != nil {
			return err
		}
		if revoked {
			return fmt.Errorf("%w: token is blacklisted", domain.ErrUnauthorized)
		}
	}
	return nil
}

// Blacklist 登出
func (s *UserService) Blacklist(ctx context.Context, refresh string) error {
	c, err := s.refreshClaims(ctx, refresh)
	if err != nil {
		return err
	}
	_, err = s.tokens.Revoke(ctx, c.ID, c.UID, c.ExpiresAt.Time)
	return err
}

// Authenticate access token -> Caller；停用或已删除用户视为未认证
func (s *UserService) Authenticate(ctx context.Context, token string) (domain.Caller, error) {
	c, err := s.jwt.ParseType(token, auth.TypeAccess)
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("%w: given token not valid for any token type", domain.ErrUnauthorized)
	}
	u, err := s.active(ctx, c.UID)
	if err != nil {
		return domain.Anonymous(), err
	}
	return u.Caller(), nil
}

func (s *UserService) active(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", domain.ErrUnauthorized)
	}
	return u, nil
}

func (s *UserService) Me(ctx context.Context, c domain.Caller) (*domain.User, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, c.UserID)
}

// UpdateMe 邮箱/用户名变更时校验唯一
func (s *UserService) UpdateMe(ctx context.Context, c domain.Caller, mutate func(u *domain.User)) (*domain.User, error) {
	u, err := s.Me(ctx, c)
	if err != nil {
		return nil, err
	}
	mutate(u)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	errs := domain.FieldErrors{}
	checkEmail(errs, u.Email)
	checkUsername(errs, u.Username)
	checkBirth(errs, "date_of_birth", u.DateOfBirth)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, u.Email, u.Username, u.ID); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteMe 需要当前密码；关联数据级联删除
func (s *UserService) DeleteMe(ctx context.Context, c domain.Caller, currentPassword string) error {
	u, err := s.Me(ctx, c)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(currentPassword, u.PasswordHash) {
		return domain.Invalid("current_password", "invalid password")
	}
	return s.users.HardDelete(ctx, u.ID)
}

func (s *UserService) SetPassword(ctx context.Context, c domain.Caller, current, next string) error {
	u, err := s.Me(ctx, c)
	if err != nil {
		return err
	}
	errs := domain.FieldErrors{}
	if !utils.CheckPassword(current, u.PasswordHash) {
		errs.Add("current_password", "invalid password")
	}
	checkPassword(errs, "new_password", next)
	if err := errs.Err(); err != nil {
		return err
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	return s.users.Update(ctx, u)
}

func (s *UserService) Profile(ctx context.Context, c domain.Caller) (*domain.Profile, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	return s.users.Profile(ctx, c.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, c domain.Caller, mutate func(p *domain.Profile)) (*domain.Profile, error) {
	p, err := s.Profile(ctx, c)
	if err != nil {
		return nil, err
	}
	id, owner := p.ID, p.UserID
	mutate(p)
	p.ID, p.UserID = id, owner
	errs := domain.FieldErrors{}
	if p.HeightCM < 0 {
		errs.Add("height_cm", "ensure this value is greater than or equal to 0")
	}
	if p.FitnessGoal != "" && !domain.OneOf(p.FitnessGoal, domain.FitnessGoals...) {
		errs.Add("fitness_goal", "must be one of lose, maintain, gain")
	}
	if p.AvatarURL != "" && !domain.ValidURL(p.AvatarURL) {
		errs.Add("avatar_url", "enter a valid URL")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := s.users.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ---------- 管理端 ----------

func (s *UserService) List(ctx context.Context, q domain.ListQuery, withDeleted bool) (domain.Page[domain.User], error) {
	q.Normalize()
	users, total, err := s.users.List(ctx, q, withDeleted)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	return domain.Page[domain.User]{List: users, Total: total, Page: q.Page, Size: q.Size}, nil
}

// Ban 软删除，之后该用户的 token 全部失效
func (s *UserService) Ban(ctx context.Context, id string) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user banned", zap.String("uid", id))
	return nil
}

func (s *UserService) Unban(ctx context.Context, id string) error {
	return s.users.Restore(ctx, id)
}

func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsActive = active
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) SetRole(ctx context.Context, id, role string) (*domain.User, error) {
	if !domain.OneOf(role, domain.RoleUser, domain.RoleAdmin) {
		return nil, domain.Invalid("role", "must be one of user, admin")
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// PurgeTokens 清理过期黑名单
func (s *UserService) PurgeTokens(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx, time.Now())
}
