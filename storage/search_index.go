package storage

import (
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

type SessionMessageMatch struct {
	SessionID    string
	SessionTitle string
	MessageIndex int
	IsUser       bool
	Preview      string
	Timestamp    time.Time
}

// FilterSessions fuzzy-matches query against session titles and the first
// user message, keeping best matches first. An empty query returns the input.
func FilterSessions(sessions []Session, query string) []Session {
	if strings.TrimSpace(query) == "" {
		return sessions
	}

	targets := make([]string, len(sessions))
	for i, s := range sessions {
		targets[i] = s.Title + " " + firstUserLine(s)
	}

	matches := fuzzy.Find(query, targets)
	filtered := make([]Session, len(matches))
	for i, match := range matches {
		filtered[i] = sessions[match.Index]
	}
	return filtered
}

// SearchMessages does a case-insensitive substring search over every
// message in every session.
func SearchMessages(sessions []Session, query string) []SessionMessageMatch {
	if query == "" {
		return []SessionMessageMatch{}
	}

	queryLower := strings.ToLower(query)
	var matches []SessionMessageMatch

	for _, session := range sessions {
		for i, msg := range session.Messages {
			if msg.IsLoading {
				continue
			}
			if !strings.Contains(strings.ToLower(msg.Content), queryLower) {
				continue
			}

			preview := msg.Content
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}

			matches = append(matches, SessionMessageMatch{
				SessionID:    session.ID,
				SessionTitle: session.Title,
				MessageIndex: i,
				IsUser:       msg.IsUser,
				Preview:      preview,
				Timestamp:    msg.Timestamp,
			})
		}
	}

	return matches
}

func firstUserLine(s Session) string {
	for _, msg := range s.Messages {
		if msg.IsUser && msg.Kind() == MessageTypeText {
			line, _, _ := strings.Cut(msg.Content, "\n")
			return line
		}
	}
	return ""
}
