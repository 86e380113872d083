// Package domain holds the core value types of the research loop: the
// append-only message transcript, the per-run result, and the resumable
// session. Everything here is transport-agnostic and free of I/O.
package domain

import "iter"

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversational turn. Content is plain text; the engine
// renders markdown inside it but the transcript does not care.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is an append-only transcript. Values are treated as immutable:
// Append returns a new History and never mutates its receiver, so two
// histories may share a prefix but can never observe each other's growth.
type History []Message

// NewHistory starts a transcript with the user's research query as its
// first turn.
func NewHistory(query string) History {
	return History{{Role: RoleUser, Content: query}}
}

// Append returns a new History with msg added. The receiver is unchanged.
func (h History) Append(msg Message) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, msg)
}

// Clone returns an independent copy safe to hand across API boundaries.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}

// Last returns the most recent turn, or ok=false for an empty transcript.
func (h History) Last() (Message, bool) {
	if len(h) == 0 {
		return Message{}, false
	}
	return h[len(h)-1], true
}

// All iterates the transcript in order, yielding positional indexes so
// callers can resume rendering from a watermark.
func (h History) All() iter.Seq2[int, Message] {
	return func(yield func(int, Message) bool) {
		for i, msg := range h {
			if !yield(i, msg) {
				return
			}
		}
	}
}

// ContainsContent reports whether any turn carries exactly this content.
// Used to dedupe engine turns that reappear across restarted runs.
func (h History) ContainsContent(content string) bool {
	for _, msg := range h {
		if msg.Content == content {
			return true
		}
	}
	return false
}
