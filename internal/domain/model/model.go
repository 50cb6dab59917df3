// Package model contains domain models passed between layers.
package model

import (
	"net/mail"
	"strings"
	"time"
)

// Method tags how a MatchResult was computed.
type Method string

// Computation methods.
const (
	MethodSemantic         Method = "ml-semantic"
	MethodSimple           Method = "simple"
	MethodNoSkills         Method = "no-skills"
	MethodError            Method = "error"
	MethodInvalidCandidate Method = "invalid-candidate"
)

// Candidate is read from the external profile store.
type Candidate struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Skills []string `json:"skills"`
}

// HasValidContact reports whether the candidate can be reached by email.
func (c Candidate) HasValidContact() bool {
	addr := strings.TrimSpace(c.Email)
	if addr == "" {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return false
	}
	// Reject display-name forms such as "Bob <bob@x>"; profiles store bare addresses.
	return parsed.Address == addr
}

// RequiredSkill is a posting requirement. Weight expresses relative
// importance and defaults to 1 when unset.
type RequiredSkill struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight,omitempty"`
}

// Posting is a job posting with its required skills.
type Posting struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Skills    []RequiredSkill `json:"skills"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SkillNames returns the raw skill names of the posting in declaration order.
func (p Posting) SkillNames() []string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return names
}

// MatchResult is one candidate's match against one posting. The JSON shape
// is the persisted snapshot entry.
type MatchResult struct {
	CandidateID     string    `json:"student"`
	MatchPercentage float64   `json:"matchPercentage"`
	MatchedSkills   []string  `json:"matchedSkills"`
	MissingSkills   []string  `json:"missingSkills"`
	Method          Method    `json:"method"`
	SemanticScore   *float64  `json:"semanticScore,omitempty"`
	TFIDFScore      *float64  `json:"tfidfScore,omitempty"`
	HybridScore     *float64  `json:"hybridScore,omitempty"`
	Band            string    `json:"band,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	ComputedAt      time.Time `json:"calculatedAt"`
}

// Snapshot is the full result set of the most recent batch for a posting.
type Snapshot struct {
	PostingID  string        `json:"postingId"`
	Generation uint64        `json:"generation"`
	Entries    []MatchResult `json:"entries"`
	ComputedAt time.Time     `json:"computedAt"`
}

// Notification constants.
const (
	NotificationTypeJobMatch = "job_match"
	StudentActionNotApplied  = "not_applied"
)

// NotificationRecord tells a candidate about a matching posting.
type NotificationRecord struct {
	ID              string    `json:"id"`
	CandidateID     string    `json:"student"`
	PostingID       string    `json:"job"`
	Message         string    `json:"message"`
	MatchPercentage float64   `json:"matchPercentage"`
	MatchedSkills   []string  `json:"matchedSkills"`
	MissingSkills   []string  `json:"unmatchedSkills"`
	Method          Method    `json:"matchMethod"`
	SemanticScore   *float64  `json:"semanticScore,omitempty"`
	TFIDFScore      *float64  `json:"tfidfScore,omitempty"`
	HybridScore     *float64  `json:"hybridScore,omitempty"`
	IsRead          bool      `json:"isRead"`
	Type            string    `json:"type"`
	StudentAction   string    `json:"studentAction"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Delivery is a notification waiting for the messaging collaborator.
type Delivery struct {
	Record    NotificationRecord
	Recipient string
	Posting   Posting
	Band      string
	Grouped   map[string][]string // matched skills by category
}
