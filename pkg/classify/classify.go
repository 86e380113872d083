// Package classify decides what a workflow run actually meant.
//
// The external engine signals "I need more input" only through the
// natural-language phrasing of its last turn, never through a structured
// field. This package is the heuristic bridge over that gap: a pure
// function of the RunResult plus a pluggable question detector. It is
// explicitly best-effort: false positives and negatives are possible and
// accepted; a missed question degrades to showing the partial transcript.
package classify

import (
	"strings"

	"github.com/aretw0/fathom/pkg/domain"
)

// Outcome is the classification of one workflow run.
type Outcome int

const (
	// Complete: the engine produced a final report.
	Complete Outcome = iota
	// NeedsClarification: the engine's last turn reads as a question to
	// the human.
	NeedsClarification
	// Incomplete: the run ended without a report or a recognizable
	// question. Treated as a soft-terminal state, not an error.
	Incomplete
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case NeedsClarification:
		return "needs_clarification"
	default:
		return "incomplete"
	}
}

// Verdict is the classifier output. Question is set only for
// NeedsClarification and carries the assistant turn verbatim.
type Verdict struct {
	Outcome  Outcome
	Question string
}

// QuestionDetector reports whether a piece of assistant text reads as a
// request for human input. It is the single replaceable policy behind the
// system's only real source of semantic ambiguity.
type QuestionDetector func(text string) bool

// questionWords are phrasings that mark a turn as a clarification request
// even without a question mark.
var questionWords = []string{
	"please", "clarify", "specify", "which", "what", "how", "could you", "would you",
}

// DefaultQuestionDetector matches a question mark or any of a fixed set of
// request phrasings, case-insensitively.
func DefaultQuestionDetector(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	lower := strings.ToLower(text)
	for _, w := range questionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Classify maps a RunResult to a Verdict. It is a pure function: the same
// result and detector always yield the same verdict.
//
// A non-empty FinalReport wins regardless of message content. An empty
// transcript is an anomalous but recoverable engine outcome and classifies
// as Incomplete rather than erroring.
func Classify(result *domain.RunResult, detect QuestionDetector) Verdict {
	if result.FinalReport != "" {
		return Verdict{Outcome: Complete}
	}
	if detect == nil {
		detect = DefaultQuestionDetector
	}

	last, ok := result.Messages.Last()
	if !ok {
		return Verdict{Outcome: Incomplete}
	}

	if last.Role == domain.RoleAssistant && detect(last.Content) {
		return Verdict{Outcome: NeedsClarification, Question: last.Content}
	}
	return Verdict{Outcome: Incomplete}
}
