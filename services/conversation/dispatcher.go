package conversation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"concierge/models"
)

// Launcher fires the external side effect (opening a search URL). The core
// never touches the network itself.
type Launcher interface {
	Launch(url string) error
}

// LauncherFunc adapts a plain function to the Launcher interface.
type LauncherFunc func(url string) error

func (f LauncherFunc) Launch(url string) error { return f(url) }

// Dispatcher builds the external search target from context and fires it at
// most once per distinct resolved key. Launch failures are logged, never
// retried.
type Dispatcher struct {
	BaseURL     string
	AffiliateID string
	Launcher    Launcher
	Logger      *zap.Logger
}

// MaybeDispatch fires the launcher when the context carries lodging intent,
// a location, and a dedupe key that has not been dispatched yet. It returns
// the (possibly updated) context alongside the result.
func (d *Dispatcher) MaybeDispatch(ctx models.ConversationContext) (models.ConversationContext, models.DispatchResult) {
	if ctx.Category != models.CategoryLodging {
		return ctx, models.DispatchResult{Outcome: models.OutcomeSkipped, Reason: models.SkipNoIntent}
	}
	if ctx.Location == "" {
		return ctx, models.DispatchResult{Outcome: models.OutcomeSkipped, Reason: models.SkipNoLocation}
	}

	key := DedupeKey(ctx)
	if key == ctx.LastDispatchedKey {
		return ctx, models.DispatchResult{Outcome: models.OutcomeSkipped, Reason: models.SkipAlreadyDispatched}
	}

	target := d.buildURL(ctx)
	// The key is recorded before launching: one attempt per resolved
	// context, even when the launcher fails.
	ctx.LastDispatchedKey = key
	if err := d.Launcher.Launch(target); err != nil && d.Logger != nil {
		d.Logger.Warn("launcher failed", zap.String("url", target), zap.Error(err))
	}
	return ctx, models.DispatchResult{Outcome: models.OutcomeDispatched, URL: target}
}

// DedupeKey fingerprints the resolved slots. Missing fields are included so
// partial contexts still dedupe correctly.
func DedupeKey(ctx models.ConversationContext) string {
	checkin, checkout := "-", "-"
	if ctx.Dates != nil {
		checkin = ctx.Dates.Start.Format("2006-01-02")
		checkout = ctx.Dates.End.Format("2006-01-02")
	}
	party := "-"
	if ctx.PartySize != 0 {
		party = strconv.Itoa(ctx.PartySize)
	}
	return fmt.Sprintf("%s|%s|%s|%s", strings.ToLower(ctx.Location), party, checkin, checkout)
}

func (d *Dispatcher) buildURL(ctx models.ConversationContext) string {
	params := url.Values{}
	params.Set("location", ctx.Location)
	if ctx.PartySize != 0 {
		params.Set("partySize", strconv.Itoa(ctx.PartySize))
	}
	if ctx.Dates != nil {
		params.Set("checkin", ctx.Dates.Start.Format("2006-01-02"))
		params.Set("checkout", ctx.Dates.End.Format("2006-01-02"))
	}
	if d.AffiliateID != "" {
		params.Set("aid", d.AffiliateID)
	}
	return d.BaseURL + "?" + params.Encode()
}
