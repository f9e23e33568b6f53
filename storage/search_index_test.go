package storage

import "testing"

func TestFilterSessions(t *testing.T) {
	sessions := []Session{
		{ID: "a", Title: "Trip planning", Messages: []Message{{Content: "flights to Lima", IsUser: true}}},
		{ID: "b", Title: "Recipes", Messages: []Message{{Content: "vegan lasagna", IsUser: true}}},
		{ID: "c", Title: DefaultSessionTitle, Messages: []Message{{Content: "budget spreadsheet", IsUser: true}}},
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"empty query keeps all", "", []string{"a", "b", "c"}},
		{"title match", "recipes", []string{"b"}},
		{"first user message match", "lasagna", []string{"b"}},
		{"no match", "zzzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSessions(sessions, tt.query)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("FilterSessions(%q) returned %d sessions, want %d", tt.query, len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("result %d = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestSearchMessages(t *testing.T) {
	sessions := testSessions()
	sessions[0].Messages = append(sessions[0].Messages, Message{ID: "l", IsLoading: true, Content: "hola"})

	matches := SearchMessages(sessions, "HOLA")
	if len(matches) != 2 {
		t.Fatalf("SearchMessages() returned %d matches, want 2", len(matches))
	}
	if matches[0].SessionID != "s2" || matches[0].MessageIndex != 0 || !matches[0].IsUser {
		t.Errorf("first match = %+v", matches[0])
	}

	if got := SearchMessages(sessions, ""); len(got) != 0 {
		t.Errorf("empty query returned %d matches", len(got))
	}
}
