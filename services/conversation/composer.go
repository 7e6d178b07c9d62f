package conversation

import (
	"fmt"
	"strings"

	"concierge/models"
)

// Composer renders the next assistant prompt from context and the slots the
// current turn filled. Output is templated per locale; there is no free-form
// generation.
type Composer struct {
	loc *Locale
}

func NewComposer(loc *Locale) *Composer {
	return &Composer{loc: loc}
}

// Compose returns the next prompt. previousReply is the assistant's
// immediately preceding turn; the composed string is guaranteed to differ
// from it (a would-be repeat degrades to the varied closing confirmation).
func (c *Composer) Compose(ctx models.ConversationContext, slots models.PartialSlots, previousReply string) string {
	reply := c.compose(ctx, slots)
	if reply != previousReply {
		return reply
	}
	if ctx.Pending == models.PendingNone {
		varied := fmt.Sprintf(c.loc.T.ConfirmAlt, ctx.Location)
		if varied == previousReply {
			varied = strings.TrimSuffix(varied, "?") + "."
		}
		return varied
	}
	return fmt.Sprintf("%s %s", c.loc.T.AskAgain, reply)
}

func (c *Composer) compose(ctx models.ConversationContext, slots models.PartialSlots) string {
	t := c.loc.T

	if ctx.Category != models.CategoryLodging {
		if ctx.Location != "" {
			return fmt.Sprintf(t.HelpWithLocation, ctx.Location)
		}
		return t.Help
	}

	var parts []string
	if slots.Location != "" {
		parts = append(parts, fmt.Sprintf(t.AckLocation, ctx.Location))
	}
	if slots.PartySize != 0 {
		parts = append(parts, fmt.Sprintf(t.AckPartySize, ctx.PartySize))
	}
	if slots.Dates != nil && ctx.Dates != nil {
		parts = append(parts, fmt.Sprintf(t.AckDates,
			ctx.Dates.Start.Format("2006-01-02"), ctx.Dates.End.Format("2006-01-02")))
	}

	switch ctx.Pending {
	case models.PendingLocation:
		parts = append(parts, t.AskLocation)
	case models.PendingPartySize:
		parts = append(parts, t.AskPartySize)
	case models.PendingDates:
		parts = append(parts, t.AskDates)
	default:
		parts = append(parts, fmt.Sprintf(t.Confirm, ctx.Location))
	}

	return strings.Join(parts, " ")
}
