package validation

import (
	"testing"

	venuereviews "reviewhub/internal/domain/venuereview"

	"github.com/stretchr/testify/assert"
)

type scored struct {
	Service int `validate:"score"`
}

func TestScoreTag(t *testing.T) {
	tests := []struct {
		score int
		ok    bool
	}{
		{venuereviews.MinScore - 1, false},
		{venuereviews.MinScore, true},
		{5, true},
		{venuereviews.MaxScore, true},
		{venuereviews.MaxScore + 1, false},
	}
	for _, tt := range tests {
		err := Validate.Struct(scored{Service: tt.score})
		if tt.ok {
			assert.NoError(t, err, "score %d", tt.score)
		} else {
			assert.Error(t, err, "score %d", tt.score)
		}
	}
}
