package core

// Query identifies one conversational turn request: who is asking, within
// which session, and what they said. A zero SessionID lets the receiving
// side allocate a fresh session.
type Query struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}
