package service

import (
	"context"

	"gorm.io/gorm"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/repo"
)

type CommunityService struct {
	Posts      *Resource[domain.Post]
	Comments   *Resource[domain.Comment]
	Challenges *Resource[domain.Challenge]

	posts  *repo.GormStore[domain.Post]
	social domain.SocialRepository
	users  domain.UserRepository
}

func NewCommunityService(db *gorm.DB, tx Transactor, users domain.UserRepository) *CommunityService {
	s := &CommunityService{
		posts:  repo.NewGormStore[domain.Post](db).Select(postColumns),
		social: repo.NewSocialRepo(db),
		users:  users,
	}

	s.Posts = newResource("post", s.posts, tx, public)
	s.Posts.Hooks = Hooks[domain.Post]{
		ScopeList: activeOrOwn("user_id"),
		Visible: func(c domain.Caller, m *domain.Post) bool {
			return m.IsActive || c.CanModify(m.UserID)
		},
	}

	s.Comments = newResource("comment", repo.NewGormStore[domain.Comment](db).Preload("Post"), tx, public)
	s.Comments.Hooks = Hooks[domain.Comment]{
		ScopeList: commentScope,
		// 帖子被停用后，其评论跟随帖子一起隐藏
		Visible: func(c domain.Caller, m *domain.Comment) bool {
			if m.Post == nil || !(m.Post.IsActive || c.CanModify(m.Post.UserID)) {
				return false
			}
			return m.IsActive || c.CanModify(m.UserID)
		},
		Validate: func(ctx context.Context, m, prev *domain.Comment) error {
			if prev != nil {
				m.PostID = prev.PostID
				return nil
			}
			if m.PostID == "" {
				return domain.Invalid("post_id", "this field is required")
			}
			ok, err := s.posts.Exists(ctx, domain.Eq("id", m.PostID), domain.Eq("is_active", true))
			if err != nil {
				return err
			}
			if !ok {
				return domain.Invalid("post_id", "post does not exist or is not active")
			}
			return nil
		},
	}

	challenges := repo.NewGormStore[domain.Challenge](db).
		Preload("Participants").
		CleanJoin("challenge_participants", "challenge_id")
	s.Challenges = newResource("challenge", challenges, tx, public)
	userStore := repo.NewGormStore[domain.User](db)
	s.Challenges.Hooks = Hooks[domain.Challenge]{
		Validate: func(ctx context.Context, m, _ *domain.Challenge) error {
			if !m.StartDate.IsZero() && !m.EndDate.IsZero() && m.EndDate.Before(m.StartDate) {
				return domain.Invalid("end_date", "end date must not be before start date")
			}
			if m.ParticipantIDs != nil {
				return checkIDs(ctx, userStore, "participants", m.ParticipantIDs)
			}
			return nil
		},
		AfterSave: func(ctx context.Context, m *domain.Challenge) error {
			if m.ParticipantIDs == nil {
				return nil
			}
			us, err := userStore.Find(ctx, domain.In("id", uniqueIDs(m.ParticipantIDs)))
			if err != nil {
				return err
			}
			return challenges.Replace(ctx, m, "Participants", us)
		},
	}
	return s
}

// postColumns 点赞数随帖子一次查出
const postColumns = "posts.*, (SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

// commentScope 评论本身可见（启用或自己的）且所属帖子可见（启用或自己的）
func commentScope(_ context.Context, c domain.Caller, q *domain.ListQuery) {
	if c.IsAdmin() {
		return
	}
	active, livePost := domain.Eq("is_active", true), domain.InSub("post_id", "posts", "id", domain.Eq("is_active", true))
	if !c.Authenticated() {
		q.Conds = append(q.Conds, active, livePost)
		return
	}
	mine, myPost := domain.Eq("user_id", c.UserID), domain.InSub("post_id", "posts", "id", domain.Eq("user_id", c.UserID))
	q.AnyOf(
		[]domain.Cond{active, livePost},
		[]domain.Cond{active, myPost},
		[]domain.Cond{mine, livePost},
		[]domain.Cond{mine, myPost},
	)
}

// activeOrOwn 非管理员只看到启用的记录和自己的记录
func activeOrOwn(ownerColumn string) func(context.Context, domain.Caller, *domain.ListQuery) {
	return func(_ context.Context, c domain.Caller, q *domain.ListQuery) {
		if c.IsAdmin() {
			return
		}
		if !c.Authenticated() {
			q.Eq("is_active", true)
			return
		}
		q.AnyOf(
			[]domain.Cond{domain.Eq("is_active", true)},
			[]domain.Cond{domain.Eq(ownerColumn, c.UserID)},
		)
	}
}

// ToggleActive 所有者或管理员切换帖子启用状态
func (s *CommunityService) ToggleActive(ctx context.Context, c domain.Caller, id string) (*domain.Post, error) {
	return s.Posts.Update(ctx, c, id, func(p *domain.Post) error {
		p.IsActive = !p.IsActive
		return nil
	})
}

// LikeResult 点赞后的状态
type LikeResult struct {
	Liked      bool  `json:"liked"`
	Created    bool  `json:"created"`
	LikesCount int64 `json:"likes_count"`
}

func (s *CommunityService) Like(ctx context.Context, c domain.Caller, postID string) (LikeResult, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return LikeResult{}, err
	}
	if _, err := s.Posts.Retrieve(ctx, c, postID); err != nil {
		return LikeResult{}, err
	}
	created, err := s.social.Like(ctx, c.UserID, postID)
	if err != nil {
		return LikeResult{}, err
	}
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{Liked: true, Created: created, LikesCount: p.LikesCount}, nil
}

func (s *CommunityService) Unlike(ctx context.Context, c domain.Caller, postID string) error {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return err
	}
	if _, err := s.Posts.Retrieve(ctx, c, postID); err != nil {
		return err
	}
	return s.social.Unlike(ctx, c.UserID, postID)
}

func (s *CommunityService) Follow(ctx context.Context, c domain.Caller, userID string) (bool, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return false, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return false, err
	}
	return s.social.Follow(ctx, c.UserID, userID)
}

func (s *CommunityService) Unfollow(ctx context.Context, c domain.Caller, userID string) error {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return err
	}
	return s.social.Unfollow(ctx, c.UserID, userID)
}

func (s *CommunityService) Followers(ctx context.Context, c domain.Caller, userID string, q domain.ListQuery) (domain.Page[domain.User], error) {
	return s.relation(ctx, c, userID, q, s.social.Followers)
}

func (s *CommunityService) Following(ctx context.Context, c domain.Caller, userID string, q domain.ListQuery) (domain.Page[domain.User], error) {
	return s.relation(ctx, c, userID, q, s.social.Following)
}

type relationFn func(ctx context.Context, userID string, q domain.ListQuery) ([]domain.User, int64, error)

func (s *CommunityService) relation(ctx context.Context, c domain.Caller, userID string, q domain.ListQuery, fn relationFn) (domain.Page[domain.User], error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return domain.Page[domain.User]{}, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return domain.Page[domain.User]{}, err
	}
	q.Normalize()
	users, total, err := fn(ctx, userID, q)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	return domain.Page[domain.User]{List: users, Total: total, Page: q.Page, Size: q.Size}, nil
}

// Join 只能加入启用中的挑战；重复加入无副作用
func (s *CommunityService) Join(ctx context.Context, c domain.Caller, challengeID string) (*domain.Challenge, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	ch, err := s.Challenges.Retrieve(ctx, c, challengeID)
	if err != nil {
		return nil, err
	}
	if !ch.IsActive {
		return nil, domain.Invalid(domain.NonField, "challenge is not active")
	}
	if err := s.social.Join(ctx, ch.ID, c.UserID); err != nil {
		return nil, err
	}
	return s.Challenges.Store.Get(ctx, ch.ID)
}

func (s *CommunityService) Leave(ctx context.Context, c domain.Caller, challengeID string) (*domain.Challenge, error) {
	if err := c.Allow(domain.AccessAuthenticated); err != nil {
		return nil, err
	}
	ch, err := s.Challenges.Retrieve(ctx, c, challengeID)
	if err != nil {
		return nil, err
	}
	if err := s.social.Leave(ctx, ch.ID, c.UserID); err != nil {
		return nil, err
	}
	return s.Challenges.Store.Get(ctx, ch.ID)
}

func (s *CommunityService) Leaderboard(ctx context.Context, c domain.Caller, challengeID string, limit int) ([]domain.LeaderboardEntry, error) {
	ch, err := s.Challenges.Retrieve(ctx, c, challengeID)
	if err != nil {
		return nil, err
	}
	return s.social.Leaderboard(ctx, ch, limit)
}
