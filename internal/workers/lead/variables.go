// internal/workers/lead/variables.go
// Package lead defines the process variables that describe a submitted assessment. The
// lead dispatcher produces them and every lead worker reads them, whether they arrive
// through a Zeebe job or a direct call.
package lead

import (
	"math"
	"strconv"

	"aiq-assessment/internal/assessment"
)

// Variable names shared by the lead intake process and its workers.
const (
	VarAssessmentID     = "assessmentId"
	VarIndustry         = "industry"
	VarEmail            = "email"
	VarName             = "name"
	VarTitle            = "title"
	VarCompany          = "company"
	VarConsentGiven     = "consentGiven"
	VarConsentTimestamp = "consentTimestamp"
	VarSubmittedAt      = "submittedAt"
	VarUTMSource        = "utmSource"
	VarUTMMedium        = "utmMedium"
	VarUTMCampaign      = "utmCampaign"
	VarReferrer         = "referrer"
	VarTopPriorities    = "topPriorities"
	VarPriorityNotes    = "priorityNotes"
	VarTotalScore       = "totalScore"
	VarMaxScore         = "maxScore"
	VarPercentageScore  = "percentageScore"
	VarCategoryScores   = "categoryScores"
	VarCategoryTiers    = "categoryTiers"
	VarCapabilityScores = "capabilityScores"
)

// FromResult flattens a scored submission into JSON-shaped process variables.
// Optional contact fields are omitted when empty.
func FromResult(result *assessment.Result) map[string]interface{} {
	sub := result.Submission

	priorities := make([]interface{}, len(sub.TopPriorities))
	for i, p := range sub.TopPriorities {
		priorities[i] = p
	}

	categoryScores := make(map[string]interface{}, len(result.CategoryScores))
	categoryTiers := make(map[string]interface{}, len(result.CategoryScores))
	for category, score := range result.CategoryScores {
		categoryScores[string(category)] = score.Score
		categoryTiers[string(category)] = string(score.Tier)
	}

	capabilityScores := make(map[string]interface{}, len(result.CapabilityResults))
	for _, cr := range result.CapabilityResults {
		capabilityScores[cr.Capability.ID] = cr.Score
	}

	vars := map[string]interface{}{
		VarAssessmentID:     sub.ID,
		VarIndustry:         string(sub.Industry),
		VarEmail:            sub.Email,
		VarConsentGiven:     sub.ConsentGiven,
		VarConsentTimestamp: sub.ConsentTimestamp,
		VarSubmittedAt:      sub.SubmittedAt,
		VarTopPriorities:    priorities,
		VarTotalScore:       result.TotalScore,
		VarMaxScore:         result.MaxScore,
		VarPercentageScore:  result.PercentageScore,
		VarCategoryScores:   categoryScores,
		VarCategoryTiers:    categoryTiers,
		VarCapabilityScores: capabilityScores,
	}

	optional := map[string]string{
		VarName:          sub.Name,
		VarTitle:         sub.Title,
		VarCompany:       sub.Company,
		VarUTMSource:     sub.UTMSource,
		VarUTMMedium:     sub.UTMMedium,
		VarUTMCampaign:   sub.UTMCampaign,
		VarReferrer:      sub.Referrer,
		VarPriorityNotes: sub.PriorityNotes,
	}
	for k, v := range optional {
		if v != "" {
			vars[k] = v
		}
	}

	return vars
}

// String returns vars[key] when it is a string.
func String(vars map[string]interface{}, key string) string {
	s, _ := vars[key].(string)
	return s
}

// Bool returns vars[key] when it is a bool.
func Bool(vars map[string]interface{}, key string) bool {
	b, _ := vars[key].(bool)
	return b
}

// Int reads a whole number that may have been decoded as float64.
func Int(vars map[string]interface{}, key string) int {
	n, _ := toInt(vars[key])
	return n
}

// Strings returns the string elements of an array variable.
func Strings(vars map[string]interface{}, key string) []string {
	switch v := vars[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// IntMap returns the numeric entries of an object variable.
func IntMap(vars map[string]interface{}, key string) map[string]int {
	obj, ok := vars[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]int, len(obj))
	for k, v := range obj {
		if n, ok := toInt(v); ok {
			out[k] = n
		}
	}
	return out
}

// StringMap returns the string entries of an object variable.
func StringMap(vars map[string]interface{}, key string) map[string]string {
	obj, ok := vars[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
