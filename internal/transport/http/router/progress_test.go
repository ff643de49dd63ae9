package router

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-platform/internal/domain"
)

func TestWeightLogOncePerDay(t *testing.T) {
	e := newTestEnv(t)
	uid, token := e.user("finn")

	w, _ := e.call(http.MethodGet, "/progress/weight-logs/today/", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	l := mustCall[domain.WeightLog](e, http.MethodPost, "/progress/weight-logs/", token, map[string]any{"weight_kg": 80.5}, http.StatusCreated)
	assert.Equal(t, uid, l.UserID)
	assert.Equal(t, domain.Today(), l.DateLogged)

	w, env := e.call(http.MethodPost, "/progress/weight-logs/", token, map[string]any{"weight_kg": 80})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), domain.NonField)

	today := mustCall[domain.WeightLog](e, http.MethodGet, "/progress/weight-logs/today/", token, nil, http.StatusOK)
	assert.Equal(t, l.ID, today.ID)

	// 更新不受每日一条限制
	upd := mustCall[domain.WeightLog](e, http.MethodPatch, "/progress/weight-logs/"+l.ID+"/", token, map[string]any{"weight_kg": 79}, http.StatusOK)
	assert.InDelta(t, 79.0, upd.WeightKG, 0.001)

	w, env = e.call(http.MethodPost, "/progress/weight-logs/", token, map[string]any{"weight_kg": -1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, env), "weight_kg")
}

func TestBodyMeasurementsAndMilestones(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.user("gia")
	_, other := e.user("hal")

	m := mustCall[domain.BodyMeasurement](e, http.MethodPost, "/progress/body-measurements/", token,
		map[string]any{"chest_cm": 100, "waist_cm": 80}, http.StatusCreated)
	assert.Equal(t, domain.Today(), m.DateLogged)
	w, _ := e.call(http.MethodPost, "/progress/body-measurements/", token, map[string]any{"chest_cm": 101})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mustCall[domain.BodyMeasurement](e, http.MethodGet, "/progress/body-measurements/today/", token, nil, http.StatusOK)

	ms := mustCall[domain.Milestone](e, http.MethodPost, "/progress/milestones/", token,
		map[string]any{"title": "Sub 80", "target_value": 79.9, "unit": "kg"}, http.StatusCreated)
	assert.False(t, ms.Achieved)
	assert.Nil(t, ms.AchievedAt)

	ms = mustCall[domain.Milestone](e, http.MethodPatch, "/progress/milestones/"+ms.ID+"/", token, map[string]any{"achieved": true}, http.StatusOK)
	assert.True(t, ms.Achieved)
	require.NotNil(t, ms.AchievedAt)

	w, _ = e.call(http.MethodPatch, "/progress/milestones/"+ms.ID+"/", other, map[string]any{"achieved": false})
	assert.Equal(t, http.StatusForbidden, w.Code)

	ms = mustCall[domain.Milestone](e, http.MethodPatch, "/progress/milestones/"+ms.ID+"/", token, map[string]any{"achieved": false}, http.StatusOK)
	assert.Nil(t, ms.AchievedAt)
}
