package models

import "time"

// SessionInfo describes one conversation session as exposed over the API.
type SessionInfo struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"createdAt"`
}

// TurnRecord is one archived conversation turn. User turns carry the raw and
// normalized text plus whatever the assistant answered; dispatches record the
// launched URL.
type TurnRecord struct {
	ID             string    `json:"id" bson:"id"`
	SessionID      string    `json:"sessionId" bson:"sessionId"`
	Speaker        Speaker   `json:"speaker" bson:"speaker"`
	RawText        string    `json:"rawText" bson:"rawText"`
	NormalizedText string    `json:"normalizedText,omitempty" bson:"normalizedText,omitempty"`
	Reply          string    `json:"reply,omitempty" bson:"reply,omitempty"`
	DispatchURL    string    `json:"dispatchUrl,omitempty" bson:"dispatchUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}
