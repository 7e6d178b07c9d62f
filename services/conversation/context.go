package conversation

import (
	"strings"

	"concierge/models"
)

// MergePolicy controls the one behavior the source material genuinely
// disagrees on: whether a new location also clears the party size and dates.
// The default keeps them (sticky unless explicitly restated).
type MergePolicy struct {
	ClearSlotsOnNewLocation bool
}

// Merge applies extracted slots over the existing context with sticky
// semantics: absent slots never clear previously known values. A location
// change (case-insensitive) invalidates the dispatch dedupe key so the next
// resolved context may fire again. The pending question is recomputed every
// turn, never carried over as a stored decision.
func Merge(ctx models.ConversationContext, slots models.PartialSlots, policy MergePolicy) models.ConversationContext {
	if ctx.Category == "" {
		ctx.Category = models.CategoryNone
	}
	if slots.LodgingIntent {
		ctx.Category = models.CategoryLodging
	}

	if slots.Location != "" && !strings.EqualFold(slots.Location, ctx.Location) {
		ctx.Location = slots.Location
		ctx.LastDispatchedKey = ""
		if policy.ClearSlotsOnNewLocation {
			ctx.PartySize = 0
			ctx.Dates = nil
		}
	}

	if slots.PartySize != 0 {
		ctx.PartySize = slots.PartySize
	}
	if slots.Dates != nil {
		ctx.Dates = slots.Dates
	}

	ctx.Pending = pendingQuestion(ctx)
	return ctx
}

func pendingQuestion(ctx models.ConversationContext) models.PendingQuestion {
	switch {
	case ctx.Location == "":
		return models.PendingLocation
	case ctx.PartySize == 0:
		return models.PendingPartySize
	case ctx.Dates == nil:
		return models.PendingDates
	default:
		return models.PendingNone
	}
}
