package validation

import (
	"regexp"

	"github.com/ClareAI/astra-admin-console/internal/apierr"
	"github.com/ClareAI/astra-admin-console/internal/domain"
)

// e164Pattern matches phone numbers in E.164 form: leading +, 2-15 digits.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidatePhoneNumber checks a phone number for E.164 form.
func ValidatePhoneNumber(number string) []apierr.Issue {
	var issues []apierr.Issue
	if number == "" {
		issues = append(issues, apierr.Issue{Field: "phone_number", Message: "phone number is required"})
		return issues
	}
	if !e164Pattern.MatchString(number) {
		issues = append(issues, apierr.Issue{Field: "phone_number", Message: "phone number must be in E.164 format, e.g. +14155552671"})
	}
	return issues
}

// ValidateRagVersion checks retrieval parameter ranges for a new RAG
// config version.
func ValidateRagVersion(req *domain.CreateRagConfigVersionRequest) []apierr.Issue {
	var issues []apierr.Issue

	switch req.SearchMode {
	case domain.SearchModeVector, domain.SearchModeKeyword, domain.SearchModeHybrid:
	case "":
		issues = append(issues, apierr.Issue{Field: "search_mode", Message: "search mode is required"})
	default:
		issues = append(issues, apierr.Issue{Field: "search_mode", Message: "search mode must be one of vector, keyword, hybrid"})
	}

	if req.TopK < 1 || req.TopK > 50 {
		issues = append(issues, apierr.Issue{Field: "top_k", Message: "top_k must be between 1 and 50"})
	}
	if req.FusionWeight < 0 || req.FusionWeight > 1 {
		issues = append(issues, apierr.Issue{Field: "fusion_weight", Message: "fusion_weight must be between 0 and 1"})
	}
	if req.ScoreThreshold < 0 || req.ScoreThreshold > 1 {
		issues = append(issues, apierr.Issue{Field: "score_threshold", Message: "score_threshold must be between 0 and 1"})
	}
	return issues
}

// ValidateVoiceVersion checks TTS parameter ranges for a new voice config
// version.
func ValidateVoiceVersion(req *domain.CreateVoiceConfigVersionRequest) []apierr.Issue {
	var issues []apierr.Issue

	if req.VoiceID == "" {
		issues = append(issues, apierr.Issue{Field: "voice_id", Message: "voice_id is required"})
	}
	if req.Stability < 0 || req.Stability > 1 {
		issues = append(issues, apierr.Issue{Field: "stability", Message: "stability must be between 0 and 1"})
	}
	if req.SimilarityBoost < 0 || req.SimilarityBoost > 1 {
		issues = append(issues, apierr.Issue{Field: "similarity_boost", Message: "similarity_boost must be between 0 and 1"})
	}
	if req.Style < 0 || req.Style > 1 {
		issues = append(issues, apierr.Issue{Field: "style", Message: "style must be between 0 and 1"})
	}
	if req.Speed != 0 && (req.Speed < 0.25 || req.Speed > 4.0) {
		issues = append(issues, apierr.Issue{Field: "speed", Message: "speed must be between 0.25 and 4.0"})
	}
	return issues
}
