// internal/assessment/validation.go
package assessment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxPriorities          = 3
	MaxContactFieldLength  = 200
	MaxPriorityNotesLength = 1000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError carries the human-readable reason a submission was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidateSubmission checks the structure of a submission and returns the first violation.
// Capability IDs are not checked against the capability table; unknown IDs are skipped when scoring.
func ValidateSubmission(s *Submission) error {
	if s == nil {
		return invalid("Submission data is required")
	}

	if !s.Industry.IsSupported() {
		names := make([]string, len(SupportedIndustries))
		for i, ind := range SupportedIndustries {
			names[i] = string(ind)
		}
		return invalid("Industry must be one of: %s", strings.Join(names, ", "))
	}

	if s.Email == "" || !emailPattern.MatchString(s.Email) {
		return invalid("Valid email address is required")
	}

	if !s.ConsentGiven {
		return invalid("Consent must be given to submit assessment")
	}
	if s.ConsentTimestamp == "" {
		return invalid("Consent timestamp is required")
	}

	// A missing array decodes to nil; an explicit [] is still an array.
	if s.Responses == nil {
		return invalid("Responses must be an array")
	}
	if len(s.Responses) != CapabilityCount() {
		return invalid("Exactly %d capability responses are required", CapabilityCount())
	}

	for _, r := range s.Responses {
		if r.CapabilityID == "" {
			return invalid("Each response must have a valid capabilityId")
		}
		if r.Score < 1 || r.Score > MaxMaturityScore {
			return invalid("Score must be one of: 1, 2, 3, 4, 5")
		}
	}

	if s.TopPriorities == nil {
		return invalid("Top priorities must be an array")
	}
	if len(s.TopPriorities) > MaxPriorities {
		return invalid("Maximum %d priorities allowed", MaxPriorities)
	}

	responseIDs := make(map[string]struct{}, len(s.Responses))
	for _, r := range s.Responses {
		responseIDs[r.CapabilityID] = struct{}{}
	}
	for _, p := range s.TopPriorities {
		if _, ok := responseIDs[p]; !ok {
			return invalid("Priority '%s' is not a valid capability ID", p)
		}
	}

	if tooLong(s.Name, MaxContactFieldLength) {
		return invalid("Name must be %d characters or less", MaxContactFieldLength)
	}
	if tooLong(s.Title, MaxContactFieldLength) {
		return invalid("Title must be %d characters or less", MaxContactFieldLength)
	}
	if tooLong(s.Company, MaxContactFieldLength) {
		return invalid("Company must be %d characters or less", MaxContactFieldLength)
	}
	if tooLong(s.PriorityNotes, MaxPriorityNotesLength) {
		return invalid("Priority notes must be %d characters or less", MaxPriorityNotesLength)
	}

	return nil
}

func tooLong(value string, limit int) bool {
	return utf8.RuneCountInString(value) > limit
}
