package dtos

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingField is returned when a record lacks a field the upsert keys on.
var ErrMissingField = errors.New("missing required field")

// NullString is a model-supplied value that may be absent, null, or a
// scalar of any JSON type. Numbers and booleans keep their literal text.
type NullString struct {
	Value string
	Valid bool
}

func (n *NullString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = NullString{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NullString{Value: s, Valid: true}
	case '{', '[':
		return fmt.Errorf("expected a scalar, got %s", data[:1])
	default:
		// number or boolean literal
		*n = NullString{Value: string(data), Valid: true}
	}
	return nil
}

func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Trimmed returns the value with surrounding whitespace removed, or "" when null.
func (n NullString) Trimmed() string {
	if !n.Valid {
		return ""
	}
	return strings.TrimSpace(n.Value)
}

// Ptr returns nil for null or blank values so they persist as NULL.
func (n NullString) Ptr() *string {
	s := n.Trimmed()
	if s == "" {
		return nil
	}
	return &s
}

// JobRecord is one element of the extraction reply's "jobs" array.
// Every field is optional at decode time.
type JobRecord struct {
	JobID          NullString `json:"job_id"`
	Title          NullString `json:"title"`
	Company        NullString `json:"company"`
	CompanyRating  NullString `json:"company_rating"`
	CompanyReviews NullString `json:"company_reviews"`
	Experience     NullString `json:"experience"`
	Salary         NullString `json:"salary"`
	Location       NullString `json:"location"`
	Description    NullString `json:"description"`
	Skills         SkillList  `json:"skills"`
	Posted         NullString `json:"posted"`
	DetailURL      NullString `json:"detail_url"`
	LogoURL        NullString `json:"logo_url"`
}

// DisplayName is how the record is referred to in error messages.
func (r JobRecord) DisplayName() string {
	if t := r.Title.Trimmed(); t != "" {
		return t
	}
	if id := r.JobID.Trimmed(); id != "" {
		return id
	}
	return "<untitled>"
}

// Validate checks the fields the upsert keys on.
func (r JobRecord) Validate() error {
	if r.JobID.Trimmed() == "" {
		return fmt.Errorf("%w: job_id", ErrMissingField)
	}
	if r.Company.Trimmed() == "" {
		return fmt.Errorf("%w: company", ErrMissingField)
	}
	return nil
}

// SkillList decodes null or an array of scalars. Null and blank entries are dropped.
type SkillList []string

func (s *SkillList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw []NullString
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("skills: %w", err)
	}

	out := make(SkillList, 0, len(raw))
	for _, v := range raw {
		if t := v.Trimmed(); t != "" {
			out = append(out, t)
		}
	}
	*s = out
	return nil
}

// Unique returns the trimmed, non-blank skills in first-seen order without
// repeats.
func (s SkillList) Unique() []string {
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))
	for _, skill := range s {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		out = append(out, skill)
	}
	return out
}

// ExtractionReply is the object the model is asked to return.
type ExtractionReply struct {
	Jobs []JobRecord `json:"jobs"`
}

func quoteOrNull(n NullString) string {
	if !n.Valid {
		return "null"
	}
	return strconv.Quote(n.Value)
}

// Summary is a one-line description for debug logging.
func (r JobRecord) Summary() string {
	return fmt.Sprintf("job_id=%s title=%s company=%s skills=%d",
		quoteOrNull(r.JobID), quoteOrNull(r.Title), quoteOrNull(r.Company), len(r.Skills))
}
