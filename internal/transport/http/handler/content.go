package handler

import (
	"net/http"
	"time"

	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
	"fitness-platform/internal/transport/http/ez"
)

type Content struct {
	S *service.ContentService
}

// publishIn 文章/视频共用的发布字段
type publishIn struct {
	Status      *string    `json:"status"`
	IsPublished *bool      `json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`
}

func (in *publishIn) check(f *fields) {
	f.choice("status", in.Status, false, domain.StatusDraft, domain.StatusPublished)
}

func (in *publishIn) apply(p *domain.Publishable) {
	set(&p.Status, in.Status)
	set(&p.IsPublished, in.IsPublished)
	if in.Status != nil && *in.Status == domain.StatusDraft && in.IsPublished == nil {
		p.IsPublished = false
	}
	// 单独撤回发布时状态回到草稿，否则 SyncPublish 会重新发布
	if in.IsPublished != nil && !*in.IsPublished && in.Status == nil {
		p.Status = domain.StatusDraft
	}
	if in.PublishedAt != nil {
		t := in.PublishedAt.UTC()
		p.PublishedAt = &t
	}
}

type articleIn struct {
	Title   *string `json:"title"`
	Slug    *string `json:"slug"`
	Excerpt *string `json:"excerpt"`
	Content *string `json:"content"`
	publishIn
}

func (in *articleIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("title", in.Title, true, 255)
	f.text("slug", in.Slug, false, 255)
	f.text("content", in.Content, true, 0)
	in.check(f)
	return f.errs
}

func (in *articleIn) Apply(m *domain.Article) {
	set(&m.Title, in.Title)
	set(&m.Slug, in.Slug)
	set(&m.Excerpt, in.Excerpt)
	set(&m.Content, in.Content)
	in.apply(&m.Publishable)
}

type videoIn struct {
	Title           *string `json:"title"`
	Slug            *string `json:"slug"`
	URL             *string `json:"url"`
	EmbedCode       *string `json:"embed_code"`
	Description     *string `json:"description"`
	DurationSeconds *int    `json:"duration_seconds"`
	publishIn
}

func (in *videoIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	f.text("title", in.Title, true, 255)
	f.text("slug", in.Slug, false, 255)
	f.url("url", in.URL)
	atLeast(f, "duration_seconds", in.DurationSeconds, false, 0)
	in.check(f)
	return f.errs
}

func (in *videoIn) Apply(m *domain.Video) {
	set(&m.Title, in.Title)
	set(&m.Slug, in.Slug)
	set(&m.URL, in.URL)
	set(&m.EmbedCode, in.EmbedCode)
	set(&m.Description, in.Description)
	set(&m.DurationSeconds, in.DurationSeconds)
	in.apply(&m.Publishable)
}

type fitnessMeasurementIn struct {
	HeightCM    *int        `json:"height_cm"`
	WeightKG    *float64    `json:"weight_kg"`
	Gender      *string     `json:"gender"`
	DateOfBirth *domain.Day `json:"date_of_birth"`
}

func (in *fitnessMeasurementIn) Check(partial bool) domain.FieldErrors {
	f := check(partial)
	above(f, "height_cm", in.HeightCM, true, 0)
	above(f, "weight_kg", in.WeightKG, true, 0)
	if in.Gender != nil && *in.Gender != "" {
		f.choice("gender", in.Gender, false, "M", "F")
	}
	f.past("date_of_birth", in.DateOfBirth)
	return f.errs
}

func (in *fitnessMeasurementIn) Apply(m *domain.FitnessMeasurement) {
	set(&m.HeightCM, in.HeightCM)
	set(&m.WeightKG, in.WeightKG)
	set(&m.Gender, in.Gender)
	if in.DateOfBirth != nil {
		d := *in.DateOfBirth
		m.DateOfBirth = &d
		if d.IsZero() {
			m.DateOfBirth = nil
		}
	}
}

// publishFilter author / status / is_published
func publishFilter(c *ez.Ctx, q *domain.ListQuery) error {
	if v := c.Query("author"); v != "" {
		q.Eq("author_id", v)
	}
	if v := c.Query("status"); v != "" {
		if !domain.OneOf(v, domain.StatusDraft, domain.StatusPublished) {
			return domain.Invalid("status", "must be one of draft, published")
		}
		q.Eq("status", v)
	}
	published, err := ez.QueryBool(c, "is_published")
	if err != nil {
		return err
	}
	if published != nil {
		q.Eq("is_published", *published)
	}
	return nil
}

func (h Content) MountAPI(e ez.EZ) {
	e = e.Tag("content")

	ez.RegisterAction(e, ez.Action[struct{}, []domain.Article]{
		Method:  http.MethodGet,
		Path:    "/content/articles/recent/",
		Summary: "most recently published articles",
		Handler: func(c *ez.Ctx, _ *struct{}) ([]domain.Article, error) {
			return h.S.Recent(c.Request.Context(), c.Caller)
		},
	})

	ez.Crud[domain.Article, articleIn](e, ez.CrudConfig[domain.Article]{
		Path:     "/content/articles",
		Resource: h.S.Articles,
		Param:    "slug",
		Search:   []string{"title", "excerpt", "content"},
		Ordering: []string{"published_at", "created_at", "title"},
		Filters:  []string{"author", "status", "is_published"},
		Filter:   publishFilter,
	})

	ez.Crud[domain.Video, videoIn](e, ez.CrudConfig[domain.Video]{
		Path:     "/content/videos",
		Resource: h.S.Videos,
		Param:    "slug",
		Search:   []string{"title", "description"},
		Ordering: []string{"published_at", "created_at", "title", "duration_seconds"},
		Filters:  []string{"author", "status", "is_published"},
		Filter:   publishFilter,
	})

	ez.Crud[domain.FitnessMeasurement, fitnessMeasurementIn](e, ez.CrudConfig[domain.FitnessMeasurement]{
		Path:     "/content/calculators",
		Resource: h.S.Measurements,
		Name:     "fitness measurement",
		Ordering: []string{"created_at"},
	})
}
