package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/repo"
	"fitness-platform/pkg/utils"
)

const recentArticles = 5

type ContentService struct {
	Articles     *Resource[domain.Article]
	Videos       *Resource[domain.Video]
	Measurements *Resource[domain.FitnessMeasurement]
}

func NewContentService(db *gorm.DB, tx Transactor) *ContentService {
	s := &ContentService{}
	byAuthor := Policy{
		List: domain.AccessPublic, Read: domain.AccessPublic,
		Create: domain.AccessAuthenticated, Write: domain.AccessOwner,
		OwnerColumn: "author_id",
	}

	articles := repo.NewGormStore[domain.Article](db)
	s.Articles = newResource("article", articles, tx, byAuthor)
	s.Articles.Lookup = "slug"
	s.Articles.Hooks = Hooks[domain.Article]{
		ScopeList: publishedOrOwn,
		Visible: func(c domain.Caller, m *domain.Article) bool {
			return m.IsPublished || c.CanModify(m.OwnerID())
		},
		Validate: func(ctx context.Context, m, _ *domain.Article) error {
			m.SyncPublish(now())
			slug, err := uniqueSlug(ctx, articles, m.Slug, m.Title, m.ID)
			if err != nil {
				return err
			}
			m.Slug = slug
			return nil
		},
	}

	videos := repo.NewGormStore[domain.Video](db)
	s.Videos = newResource("video", videos, tx, byAuthor)
	s.Videos.Lookup = "slug"
	s.Videos.Hooks = Hooks[domain.Video]{
		ScopeList: publishedOrOwn,
		Visible: func(c domain.Caller, m *domain.Video) bool {
			return m.IsPublished || c.CanModify(m.OwnerID())
		},
		Validate: func(ctx context.Context, m, _ *domain.Video) error {
			if domain.Blank(m.URL) && domain.Blank(m.EmbedCode) {
				return domain.Invalid(domain.NonField, "either url or embed_code is required")
			}
			n, err := videos.Count(ctx, domain.Eq("title", m.Title), domain.Ne("id", m.ID))
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.Invalid("title", "video with this title already exists")
			}
			m.SyncPublish(now())
			slug, err := uniqueSlug(ctx, videos, m.Slug, m.Title, m.ID)
			if err != nil {
				return err
			}
			m.Slug = slug
			return nil
		},
	}

	s.Measurements = newResource("fitness_measurement", repo.NewGormStore[domain.FitnessMeasurement](db), tx, ownerOnly)
	return s
}

// publishedOrOwn 匿名只看已发布；作者还能看到自己的草稿
func publishedOrOwn(_ context.Context, c domain.Caller, q *domain.ListQuery) {
	if c.IsAdmin() {
		return
	}
	if !c.Authenticated() {
		q.Eq("is_published", true)
		return
	}
	q.AnyOf(
		[]domain.Cond{domain.Eq("is_published", true)},
		[]domain.Cond{domain.Eq("author_id", c.UserID)},
	)
}

// uniqueSlug 已有或显式给出的 slug 优先，否则由标题生成；重复时追加 -2、-3 ...
func uniqueSlug(ctx context.Context, st counter, explicit, title, selfID string) (string, error) {
	base := utils.Slugify(explicit)
	if base == "" {
		base = utils.Slugify(title)
	}
	if base == "" {
		return "", domain.Invalid("title", "title must contain letters or digits")
	}
	candidate := base
	for i := 2; ; i++ {
		conds := []domain.Cond{domain.Eq("slug", candidate)}
		if selfID != "" {
			conds = append(conds, domain.Ne("id", selfID))
		}
		n, err := st.Count(ctx, conds...)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Recent 最近发布的文章
func (s *ContentService) Recent(ctx context.Context, c domain.Caller) ([]domain.Article, error) {
	q := domain.ListQuery{Size: recentArticles, OrderBy: []string{"-published_at"}}
	q.Eq("is_published", true)
	page, err := s.Articles.List(ctx, c, q)
	if err != nil {
		return nil, err
	}
	return page.List, nil
}
