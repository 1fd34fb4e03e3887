package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ClareAI/astra-admin-console/internal/domain"
)

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{"us number", "+14155552671", true},
		{"hk number", "+85291234567", true},
		{"shortest valid", "+12", true},
		{"missing plus", "14155552671", false},
		{"leading zero", "+04155552671", false},
		{"letters", "+1415555abcd", false},
		{"too long", "+1234567890123456", false},
		{"empty", "", false},
		{"spaces", "+1 415 555 2671", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := ValidatePhoneNumber(tt.number)
			if tt.valid {
				assert.Empty(t, issues)
			} else {
				assert.NotEmpty(t, issues)
				assert.Equal(t, "phone_number", issues[0].Field)
			}
		})
	}
}

func TestValidateRagVersion(t *testing.T) {
	t.Run("valid hybrid config", func(t *testing.T) {
		issues := ValidateRagVersion(&domain.CreateRagConfigVersionRequest{
			SearchMode:     domain.SearchModeHybrid,
			TopK:           5,
			FusionWeight:   0.5,
			ScoreThreshold: 0.2,
		})
		assert.Empty(t, issues)
	})

	t.Run("unknown search mode", func(t *testing.T) {
		issues := ValidateRagVersion(&domain.CreateRagConfigVersionRequest{
			SearchMode: "semantic",
			TopK:       5,
		})
		assert.Len(t, issues, 1)
		assert.Equal(t, "search_mode", issues[0].Field)
	})

	t.Run("missing search mode", func(t *testing.T) {
		issues := ValidateRagVersion(&domain.CreateRagConfigVersionRequest{TopK: 5})
		assert.Len(t, issues, 1)
		assert.Equal(t, "search_mode", issues[0].Field)
	})

	t.Run("out of range parameters collect all issues", func(t *testing.T) {
		issues := ValidateRagVersion(&domain.CreateRagConfigVersionRequest{
			SearchMode:     domain.SearchModeVector,
			TopK:           0,
			FusionWeight:   1.5,
			ScoreThreshold: -0.1,
		})
		assert.Len(t, issues, 3)
		fields := make([]string, 0, len(issues))
		for _, issue := range issues {
			fields = append(fields, issue.Field)
		}
		assert.ElementsMatch(t, []string{"top_k", "fusion_weight", "score_threshold"}, fields)
	})

	t.Run("top_k upper bound", func(t *testing.T) {
		issues := ValidateRagVersion(&domain.CreateRagConfigVersionRequest{
			SearchMode: domain.SearchModeKeyword,
			TopK:       51,
		})
		assert.Len(t, issues, 1)
		assert.Equal(t, "top_k", issues[0].Field)
	})
}

func TestValidateVoiceVersion(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		issues := ValidateVoiceVersion(&domain.CreateVoiceConfigVersionRequest{
			VoiceID:         "voice-abc",
			Stability:       0.4,
			SimilarityBoost: 0.8,
			Speed:           1.0,
		})
		assert.Empty(t, issues)
	})

	t.Run("unset speed falls back to default", func(t *testing.T) {
		issues := ValidateVoiceVersion(&domain.CreateVoiceConfigVersionRequest{
			VoiceID: "voice-abc",
		})
		assert.Empty(t, issues)
	})

	t.Run("missing voice id", func(t *testing.T) {
		issues := ValidateVoiceVersion(&domain.CreateVoiceConfigVersionRequest{})
		assert.Len(t, issues, 1)
		assert.Equal(t, "voice_id", issues[0].Field)
	})

	t.Run("speed out of range", func(t *testing.T) {
		issues := ValidateVoiceVersion(&domain.CreateVoiceConfigVersionRequest{
			VoiceID: "voice-abc",
			Speed:   5.0,
		})
		assert.Len(t, issues, 1)
		assert.Equal(t, "speed", issues[0].Field)
	})

	t.Run("stability and style out of range", func(t *testing.T) {
		issues := ValidateVoiceVersion(&domain.CreateVoiceConfigVersionRequest{
			VoiceID:   "voice-abc",
			Stability: 1.2,
			Style:     -0.5,
		})
		assert.Len(t, issues, 2)
	})
}
