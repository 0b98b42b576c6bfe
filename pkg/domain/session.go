package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Step identifies the question a Session is waiting on.
type Step string

const (
	StepAwaitingLanguageCode Step = "awaiting_language_code"
	StepAwaitingCopyDecision Step = "awaiting_copy_decision"
	StepAwaitingWordCount    Step = "awaiting_word_count"
)

// LanguageStep is the payload of StepAwaitingLanguageCode.
type LanguageStep struct {
	Matches []Match `json:"matches"`
}

// Selection is what the user picked for the quote so far.
type Selection struct {
	LanguageCode  string          `json:"language_code"`
	PartitionID   string          `json:"partition_id"`
	PublisherCost decimal.Decimal `json:"publisher_cost"`
	CopyIncluded  bool            `json:"copy_included"`
}

// CopyStep is the payload of StepAwaitingCopyDecision.
type CopyStep struct {
	Selection Selection `json:"selection"`
}

// WordCountStep is the payload of StepAwaitingWordCount.
type WordCountStep struct {
	Selection Selection `json:"selection"`
}

// Session is one user's quote conversation.
// Exactly one of Language, Copy or WordCount is set, matching Step.
type Session struct {
	UserID    string         `json:"user_id"`
	Domain    string         `json:"domain"`
	Step      Step           `json:"step"`
	Language  *LanguageStep  `json:"language,omitempty"`
	Copy      *CopyStep      `json:"copy,omitempty"`
	WordCount *WordCountStep `json:"word_count,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
	// Sealed carries the encrypted session when the store encrypts at rest.
	// A sealed envelope has no step.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession starts a conversation waiting for the user to pick among matches.
func NewSession(userID, domainName string, matches []Match) *Session {
	return &Session{
		UserID:    userID,
		Domain:    domainName,
		Step:      StepAwaitingLanguageCode,
		Language:  &LanguageStep{Matches: append([]Match(nil), matches...)},
		UpdatedAt: time.Now(),
	}
}

// Validate checks that the step is known and carries its payload.
func (s *Session) Validate() error {
	var ok bool
	switch s.Step {
	case StepAwaitingLanguageCode:
		ok = s.Language != nil && s.Copy == nil && s.WordCount == nil
	case StepAwaitingCopyDecision:
		ok = s.Copy != nil && s.Language == nil && s.WordCount == nil
	case StepAwaitingWordCount:
		ok = s.WordCount != nil && s.Language == nil && s.Copy == nil
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStep, s.Step)
	}
	return nil
}

// FindMatch returns the match for a language code while waiting for one.
func (s *Session) FindMatch(code string) (Match, bool) {
	if s.Language == nil {
		return Match{}, false
	}
	code = NormalizeCode(code)
	for _, m := range s.Language.Matches {
		if m.LanguageCode == code {
			return m, true
		}
	}
	return Match{}, false
}

// SelectLanguage moves the session to the copy decision.
func (s *Session) SelectLanguage(m Match) {
	s.Step = StepAwaitingCopyDecision
	s.Language = nil
	s.Copy = &CopyStep{Selection: Selection{
		LanguageCode:  m.LanguageCode,
		PartitionID:   m.PartitionID,
		PublisherCost: m.PublisherCost,
	}}
	s.UpdatedAt = time.Now()
}

// IncludeCopy moves the session to the word count question.
func (s *Session) IncludeCopy() {
	sel := s.Copy.Selection
	sel.CopyIncluded = true
	s.Step = StepAwaitingWordCount
	s.Copy = nil
	s.WordCount = &WordCountStep{Selection: sel}
	s.UpdatedAt = time.Now()
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Language != nil {
		cp.Language = &LanguageStep{Matches: append([]Match(nil), s.Language.Matches...)}
	}
	if s.Copy != nil {
		c := *s.Copy
		cp.Copy = &c
	}
	if s.WordCount != nil {
		w := *s.WordCount
		cp.WordCount = &w
	}
	if s.Sealed != nil {
		cp.Sealed = append([]byte(nil), s.Sealed...)
	}
	return &cp
}
