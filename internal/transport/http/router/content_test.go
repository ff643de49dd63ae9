package router

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-platform/internal/domain"
)

func TestArticleSlugsAndPublishing(t *testing.T) {
	e := newTestEnv(t)
	author, token := e.user("ava")
	_, other := e.user("ben")

	a := mustCall[domain.Article](e, http.MethodPost, "/content/articles/", token,
		map[string]any{"title": "Hello World!", "content": "first"}, http.StatusCreated)
	assert.Equal(t, "hello-world", a.Slug)
	assert.Equal(t, domain.StatusDraft, a.Status)
	assert.False(t, a.IsPublished)
	assert.Nil(t, a.PublishedAt)
	require.NotNil(t, a.AuthorID)
	assert.Equal(t, author, *a.AuthorID)

	b := mustCall[domain.Article](e, http.MethodPost, "/content/articles/", token,
		map[string]any{"title": "Hello world", "content": "second"}, http.StatusCreated)
	assert.Equal(t, "hello-world-2", b.Slug)

	// 草稿只有作者可见
	path := "/content/articles/" + a.Slug + "/"
	w, _ := e.call(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = e.call(http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	mustCall[domain.Article](e, http.MethodGet, path, token, nil, http.StatusOK)

	page := mustCall[domain.Page[domain.Article]](e, http.MethodGet, "/content/articles/", "", nil, http.StatusOK)
	assert.Zero(t, page.Total)

	// 非作者写操作一律 403，即使记录对其不可见
	w, _ = e.call(http.MethodPatch, path, other, map[string]any{"status": "published"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	pub := mustCall[domain.Article](e, http.MethodPatch, path, token, map[string]any{"status": "published"}, http.StatusOK)
	assert.True(t, pub.IsPublished)
	assert.NotNil(t, pub.PublishedAt)
	assert.Equal(t, "hello-world", pub.Slug)

	mustCall[domain.Article](e, http.MethodGet, path, "", nil, http.StatusOK)
	w, _ = e.call(http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	recent := mustCall[[]domain.Article](e, http.MethodGet, "/content/articles/recent/", "", nil, http.StatusOK)
	require.Len(t, recent, 1)
	assert.Equal(t, a.ID, recent[0].ID)

	w, env := e.call(http.MethodPost, "/content/articles/", token, map[string]any{"title": "!!!", "content": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "title")

	w, _ = e.call(http.MethodGet, "/content/articles/?status=archived", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnpublishReturnsToDraft(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("fay")

	a := mustCall[domain.Article](e, http.MethodPost, "/content/articles/", token,
		map[string]any{"title": "Leg Day", "content": "squats", "status": "published"}, http.StatusCreated)
	require.True(t, a.IsPublished)
	path := "/content/articles/" + a.Slug + "/"
	mustCall[domain.Article](e, http.MethodGet, path, "", nil, http.StatusOK)

	got := mustCall[domain.Article](e, http.MethodPatch, path, token, map[string]any{"is_published": false}, http.StatusOK)
	assert.False(t, got.IsPublished)
	assert.Equal(t, domain.StatusDraft, got.Status)

	w, _ := e.call(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	page := mustCall[domain.Page[domain.Article]](e, http.MethodGet, "/content/articles/", "", nil, http.StatusOK)
	assert.Zero(t, page.Total)

	// 显式给出 status 时以 status 为准
	got = mustCall[domain.Article](e, http.MethodPatch, path, token,
		map[string]any{"status": "published", "is_published": false}, http.StatusOK)
	assert.True(t, got.IsPublished)

	v := mustCall[domain.Video](e, http.MethodPost, "/content/videos/", token, map[string]any{
		"title": "Cooldown", "url": "https://example.com/c.mp4", "is_published": true,
	}, http.StatusCreated)
	vg := mustCall[domain.Video](e, http.MethodPatch, "/content/videos/"+v.Slug+"/", token,
		map[string]any{"is_published": false}, http.StatusOK)
	assert.False(t, vg.IsPublished)
	assert.Equal(t, domain.StatusDraft, vg.Status)
	w, _ = e.call(http.MethodGet, "/content/videos/"+v.Slug+"/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVideoRequiresSource(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("cleo")

	w, env := e.call(http.MethodPost, "/content/videos/", token, map[string]any{"title": "Warmup"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), domain.NonField)

	v := mustCall[domain.Video](e, http.MethodPost, "/content/videos/", token, map[string]any{
		"title": "Warmup", "url": "https://example.com/v.mp4", "is_published": true,
	}, http.StatusCreated)
	assert.Equal(t, "warmup", v.Slug)
	assert.Equal(t, domain.StatusPublished, v.Status)

	w, env = e.call(http.MethodPost, "/content/videos/", token, map[string]any{"title": "Warmup", "embed_code": "<iframe/>"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "title")
}

func TestFitnessCalculator(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("dina")
	_, other := e.user("eli")

	m := mustCall[domain.FitnessMeasurement](e, http.MethodPost, "/content/calculators/", token,
		map[string]any{"height_cm": 180, "weight_kg": 81}, http.StatusCreated)
	assert.InDelta(t, 25.0, m.BMI, 0.001)
	assert.Equal(t, "Overweight", m.BMICategory)
	assert.InDelta(t, 2.01, m.BSA, 0.001)

	w, _ := e.call(http.MethodGet, "/content/calculators/"+m.ID+"/", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := e.call(http.MethodPost, "/content/calculators/", token, map[string]any{"height_cm": 0, "weight_kg": 81, "gender": "X"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := fieldErrors(t, env)
	assert.Contains(t, errs, "height_cm")
	assert.Contains(t, errs, "gender")
}
