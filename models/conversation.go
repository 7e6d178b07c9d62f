package models

import "time"

// Category classifies what kind of flow the conversation is currently in.
type Category string

const (
	CategoryNone    Category = "none"
	CategoryLodging Category = "lodging"
)

// PendingQuestion marks the next slot the assistant should solicit.
type PendingQuestion string

const (
	PendingNone      PendingQuestion = "none"
	PendingLocation  PendingQuestion = "location"
	PendingPartySize PendingQuestion = "partySize"
	PendingDates     PendingQuestion = "dates"
)

// DateRange is an inclusive check-in/check-out pair.
type DateRange struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// ConversationContext is the accumulated slot state of one session. Slots are
// sticky: a turn that does not mention a slot leaves its previous value
// untouched. The zero value is a fresh, empty context.
type ConversationContext struct {
	Location          string          `json:"location,omitempty" bson:"location,omitempty"`
	PartySize         int             `json:"partySize,omitempty" bson:"partySize,omitempty"`
	Dates             *DateRange      `json:"dates,omitempty" bson:"dates,omitempty"`
	Category          Category        `json:"category" bson:"category"`
	Pending           PendingQuestion `json:"pendingQuestion" bson:"pendingQuestion"`
	LastDispatchedKey string          `json:"lastDispatchedKey,omitempty" bson:"lastDispatchedKey,omitempty"`
}

// PartialSlots carries only the slots one utterance actually yielded.
// Absent slots keep their zero value and never overwrite context.
type PartialSlots struct {
	Location      string     `json:"location,omitempty"`
	PartySize     int        `json:"partySize,omitempty"`
	Dates         *DateRange `json:"dates,omitempty"`
	LodgingIntent bool       `json:"lodgingIntent,omitempty"`
}

// Speaker attributes an utterance to one side of the conversation.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Utterance is one chunk of text for a single speaker turn.
type Utterance struct {
	Speaker        Speaker   `json:"speaker" bson:"speaker"`
	RawText        string    `json:"rawText" bson:"rawText"`
	NormalizedText string    `json:"normalizedText" bson:"normalizedText"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
}

// DispatchOutcome reports what MaybeDispatch did for a turn.
type DispatchOutcome string

const (
	OutcomeDispatched DispatchOutcome = "dispatched"
	OutcomeSkipped    DispatchOutcome = "skipped"
)

// SkipReason explains why a dispatch was skipped.
type SkipReason string

const (
	SkipNoIntent          SkipReason = "noIntent"
	SkipNoLocation        SkipReason = "noLocation"
	SkipAlreadyDispatched SkipReason = "alreadyDispatched"
)

// DispatchResult is the outcome of one dispatch attempt. URL is set only when
// the launcher actually fired.
type DispatchResult struct {
	Outcome DispatchOutcome `json:"outcome"`
	Reason  SkipReason      `json:"reason,omitempty"`
	URL     string          `json:"url,omitempty"`
}

// TurnResult is everything one processed user utterance produced.
type TurnResult struct {
	Utterance Utterance           `json:"utterance"`
	Slots     PartialSlots        `json:"slots"`
	Context   ConversationContext `json:"context"`
	Reply     string              `json:"reply"`
	Dispatch  DispatchResult      `json:"dispatch"`
}
