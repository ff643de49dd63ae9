package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallerAllow(t *testing.T) {
	anon := Anonymous()
	user := Caller{UserID: "u1", Role: RoleUser}
	admin := Caller{UserID: "a1", Role: RoleAdmin}

	assert.NoError(t, anon.Allow(AccessPublic))
	assert.ErrorIs(t, anon.Allow(AccessAuthenticated), ErrUnauthorized)
	assert.ErrorIs(t, anon.Allow(AccessAdmin), ErrUnauthorized)
	assert.NoError(t, user.Allow(AccessOwner))
	assert.ErrorIs(t, user.Allow(AccessAdmin), ErrForbidden)
	assert.NoError(t, admin.Allow(AccessAdmin))

	assert.True(t, user.CanModify("u1"))
	assert.False(t, user.CanModify("u2"))
	assert.False(t, user.Owns(""))
	assert.True(t, admin.CanModify("u2"))
	assert.False(t, Caller{Role: RoleAdmin}.IsAdmin())
}

func TestFieldErrors(t *testing.T) {
	assert.NoError(t, FieldErrors{}.Err())

	err := Invalid("name", "required")
	require.True(t, IsValidation(err))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"required"}, ve.Fields["name"])
	assert.False(t, IsValidation(ErrNotFound))
}

func TestBMI(t *testing.T) {
	assert.Equal(t, 25.0, BMI(180, 81))
	assert.Equal(t, 0.0, BMI(0, 81))

	cases := map[float64]string{
		17:    "Underweight",
		18.5:  "Normal weight",
		24.99: "Normal weight",
		25:    "Overweight",
		30:    "Obese",
	}
	for bmi, want := range cases {
		assert.Equal(t, want, BMICategory(bmi), bmi)
	}

	assert.Equal(t, 2.01, BSA(180, 81))
	assert.Zero(t, BSA(180, 0))
}

func TestDailyCalories(t *testing.T) {
	in := CalorieInput{Gender: "male", Age: 30, WeightKG: 80, HeightCM: 180, ActivityLevel: "moderate_activity"}
	assert.Equal(t, 2759.0, DailyCalories(in))

	in.Goal = "lose"
	assert.Equal(t, 2259.0, DailyCalories(in))
	in.Goal = "gain"
	assert.Equal(t, 3259.0, DailyCalories(in))

	// 600 + 1000 - 150 - 161 = 1289, × 1.2
	f := CalorieInput{Gender: "female", Age: 30, WeightKG: 60, HeightCM: 160, ActivityLevel: "sedentary"}
	assert.Equal(t, 1546.8, DailyCalories(f))

	errs := CalorieInput{Gender: "x", Age: 200, ActivityLevel: "couch", Goal: "bulk"}.Check()
	for _, field := range []string{"gender", "age", "weight_kg", "height_cm", "activity_level", "goal"} {
		assert.Contains(t, errs, field)
	}
	assert.Empty(t, in.Check())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderPending, OrderPaid))
	assert.True(t, CanTransition(OrderPending, OrderCancelled))
	assert.True(t, CanTransition(OrderPaid, OrderShipped))
	assert.True(t, CanTransition(OrderShipped, OrderDelivered))
	assert.False(t, CanTransition(OrderPaid, OrderDelivered))
	assert.False(t, CanTransition(OrderShipped, OrderCancelled))
	assert.False(t, CanTransition(OrderDelivered, OrderPending))
	assert.False(t, CanTransition(OrderPaid, OrderPending))

	assert.True(t, IsTerminal(OrderDelivered))
	assert.True(t, IsTerminal(OrderCancelled))
	assert.False(t, IsTerminal(OrderShipped))
}

func TestEffectivePrice(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("19.99")}
	assert.Equal(t, "19.99", p.EffectivePrice().StringFixed(2))

	p.Discounts = []Discount{{Percent: 10}, {Percent: 25}, {Percent: 5}}
	assert.Equal(t, "14.99", p.EffectivePrice().StringFixed(2))

	c := Cart{Items: []CartItem{
		{Quantity: 2, Product: &p},
		{Quantity: 1, Product: &Product{Price: decimal.NewFromInt(5)}},
		{Quantity: 3},
	}}
	assert.Equal(t, "34.98", c.Total().StringFixed(2))
}

func TestAddressFormat(t *testing.T) {
	a := Address{Street: "1 Main St", City: "Springfield", Zip: "12345", Country: "US"}
	assert.Equal(t, "1 Main St, Springfield 12345, US", a.Format())
	a.Zip = ""
	assert.Equal(t, "1 Main St, Springfield, US", a.Format())
}

func TestSyncPublish(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var draft Publishable
	draft.SyncPublish(now)
	assert.Equal(t, StatusDraft, draft.Status)
	assert.False(t, draft.IsPublished)
	assert.Nil(t, draft.PublishedAt)

	byStatus := Publishable{Status: StatusPublished}
	byStatus.SyncPublish(now)
	assert.True(t, byStatus.IsPublished)
	require.NotNil(t, byStatus.PublishedAt)
	assert.Equal(t, now, *byStatus.PublishedAt)

	earlier := now.Add(-time.Hour)
	byFlag := Publishable{IsPublished: true, PublishedAt: &earlier}
	byFlag.SyncPublish(now)
	assert.Equal(t, StatusPublished, byFlag.Status)
	assert.Equal(t, earlier, *byFlag.PublishedAt)
}

func TestMarkAchieved(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := Milestone{Achieved: true}
	m.MarkAchieved(now)
	require.NotNil(t, m.AchievedAt)

	m.MarkAchieved(now.Add(time.Hour))
	assert.Equal(t, now, *m.AchievedAt)

	m.Achieved = false
	m.MarkAchieved(now)
	assert.Nil(t, m.AchievedAt)
}

func TestDay(t *testing.T) {
	d, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDay("29/02/2024")
	assert.Error(t, err)

	b, err := json.Marshal(struct {
		D Day  `json:"d"`
		Z *Day `json:"z"`
		E Day  `json:"e"`
	}{D: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-02-29","z":null,"e":null}`, string(b))

	var got Day
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01"`), &got))
	assert.True(t, d.Before(got))
	assert.Error(t, json.Unmarshal([]byte(`"tomorrow"`), &got))

	require.NoError(t, got.Scan(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)))
	assert.Equal(t, "2024-01-02", got.String())
	require.NoError(t, got.Scan("2024-01-03T00:00:00Z"))
	assert.Equal(t, "2024-01-03", got.String())
	require.NoError(t, got.Scan([]byte("2024-01-04")))
	assert.Equal(t, "2024-01-04", got.String())
	assert.Error(t, got.Scan(42))

	v, err := Day{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestListQuery(t *testing.T) {
	q := ListQuery{Page: 0, Size: 500}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.Size)
	assert.Zero(t, q.Offset())

	q = ListQuery{Page: 3, Size: 20}
	q.Normalize()
	assert.Equal(t, 40, q.Offset())

	// 超大页码不溢出
	q = ListQuery{Page: math.MaxInt, Size: MaxPageSize}
	q.Normalize()
	assert.Equal(t, MaxPage, q.Page)
	assert.Positive(t, q.Offset())
	assert.LessOrEqual(t, q.Offset(), math.MaxInt32)

	order, err := ParseOrdering(" -price, name ", "price", "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"-price", "name"}, order)

	_, err = ParseOrdering("password", "price")
	assert.True(t, IsValidation(err))

	order, err = ParseOrdering("", "price")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestValidURL(t *testing.T) {
	assert.True(t, ValidURL("https://example.com/v.mp4"))
	assert.False(t, ValidURL("ftp://example.com/v.mp4"))
	assert.False(t, ValidURL("not a url"))
	assert.False(t, ValidURL("http://"))
}
