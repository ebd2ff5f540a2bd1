package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReview() *Review {
	return &Review{
		ID:                "01J0000000000000000000000",
		Identity:          "dev@example.com",
		Period:            "2026-10",
		PeriodLabel:       "octubre de 2026",
		CompletionPercent: 80,
		BugCount:          0,
		Satisfaction:      SatisfactionVerySatisfied,
		CreatedAt:         "19/10/2026, 10:00:00",
	}
}

func TestSatisfaction(t *testing.T) {
	assert.Equal(t, "Muy Insatisfecho", SatisfactionVeryUnsatisfied.Label())
	assert.Equal(t, "Neutral", SatisfactionNeutral.Label())
	assert.Equal(t, "🤩", SatisfactionVerySatisfied.Emoji())
	assert.True(t, Satisfaction(3).Valid())
	assert.False(t, Satisfaction(0).Valid())
	assert.False(t, Satisfaction(6).Valid())
	assert.Equal(t, "7", Satisfaction(7).Label())
	assert.Empty(t, Satisfaction(0).Emoji())
	assert.Len(t, SatisfactionLevels, 5)
}

func TestPeriodOf(t *testing.T) {
	ts := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10", PeriodOf(ts))

	// Computed in UTC regardless of the input zone.
	loc := time.FixedZone("UTC+3", 3*60*60)
	early := time.Date(2026, time.November, 1, 1, 0, 0, 0, loc)
	assert.Equal(t, "2026-10", PeriodOf(early))
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "octubre de 2026", PeriodLabel("2026-10"))
	assert.Equal(t, "enero de 2027", PeriodLabel("2027-01"))
	assert.Equal(t, "garbage", PeriodLabel("garbage"))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, time.October, 9, 14, 3, 5, 0, time.UTC)
	assert.Equal(t, "9/10/2026, 14:03:05", FormatTimestamp(ts))
}

func TestValidateReview(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateReview(validReview()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Error(t, ValidateReview(nil))
	})

	cases := map[string]func(r *Review){
		"identity without at":   func(r *Review) { r.Identity = "nobody" },
		"empty identity":        func(r *Review) { r.Identity = "" },
		"bad period":            func(r *Review) { r.Period = "2026/10" },
		"completion over 100":   func(r *Review) { r.CompletionPercent = 105 },
		"completion not step 5": func(r *Review) { r.CompletionPercent = 81 },
		"negative bugs":         func(r *Review) { r.BugCount = -1 },
		"satisfaction zero":     func(r *Review) { r.Satisfaction = 0 },
		"satisfaction six":      func(r *Review) { r.Satisfaction = 6 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := validReview()
			mutate(r)
			err := ValidateReview(r)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid review")
		})
	}
}

func TestReviewJSON_OmitsEmptyComments(t *testing.T) {
	data, err := json.Marshal(validReview())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "comments")
	assert.Contains(t, string(data), `"developerEmail":"dev@example.com"`)
	assert.Contains(t, string(data), `"monthId":"2026-10"`)
}

func TestSheetRowFromReview(t *testing.T) {
	r := validReview()
	r.Comments = "all good"
	row := SheetRowFromReview(r)
	assert.Equal(t, "dev@example.com", row.Email)
	assert.Equal(t, 80, row.Completion)
	assert.Equal(t, 5, row.Satisfaction)
	assert.Equal(t, "all good", row.Comments)
	assert.Equal(t, "2026-10", row.MonthID)
	assert.Equal(t, "octubre de 2026", row.MonthName)
}
