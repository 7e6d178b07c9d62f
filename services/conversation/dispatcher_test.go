package conversation

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/models"
)

type recordingLauncher struct {
	urls []string
	err  error
}

func (r *recordingLauncher) Launch(u string) error {
	r.urls = append(r.urls, u)
	return r.err
}

func newTestDispatcher(l *recordingLauncher) *Dispatcher {
	return &Dispatcher{
		BaseURL:     "https://www.booking.com/searchresults.html",
		AffiliateID: "aff-123",
		Launcher:    l,
	}
}

func fullContext() models.ConversationContext {
	return models.ConversationContext{
		Category:  models.CategoryLodging,
		Location:  "Split",
		PartySize: 2,
		Dates:     &models.DateRange{Start: day(2026, 7, 12), End: day(2026, 7, 19)},
		Pending:   models.PendingNone,
	}
}

func TestMaybeDispatchFiresOnce(t *testing.T) {
	l := &recordingLauncher{}
	d := newTestDispatcher(l)

	ctx, res := d.MaybeDispatch(fullContext())
	assert.Equal(t, models.OutcomeDispatched, res.Outcome)
	require.Len(t, l.urls, 1)
	assert.NotEmpty(t, ctx.LastDispatchedKey)

	// Identical resolved context never fires again.
	_, res = d.MaybeDispatch(ctx)
	assert.Equal(t, models.OutcomeSkipped, res.Outcome)
	assert.Equal(t, models.SkipAlreadyDispatched, res.Reason)
	assert.Len(t, l.urls, 1)
}

func TestMaybeDispatchURLParams(t *testing.T) {
	l := &recordingLauncher{}
	d := newTestDispatcher(l)

	_, res := d.MaybeDispatch(fullContext())
	require.Equal(t, models.OutcomeDispatched, res.Outcome)

	parsed, err := url.Parse(res.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.URL, d.BaseURL))
	q := parsed.Query()
	assert.Equal(t, "Split", q.Get("location"))
	assert.Equal(t, "2", q.Get("partySize"))
	assert.Equal(t, "2026-07-12", q.Get("checkin"))
	assert.Equal(t, "2026-07-19", q.Get("checkout"))
	assert.Equal(t, "aff-123", q.Get("aid"))
}

func TestMaybeDispatchSkipReasons(t *testing.T) {
	l := &recordingLauncher{}
	d := newTestDispatcher(l)

	_, res := d.MaybeDispatch(models.ConversationContext{Category: models.CategoryNone, Location: "Split"})
	assert.Equal(t, models.SkipNoIntent, res.Reason)

	_, res = d.MaybeDispatch(models.ConversationContext{Category: models.CategoryLodging})
	assert.Equal(t, models.SkipNoLocation, res.Reason)

	assert.Empty(t, l.urls)
}

func TestMaybeDispatchPartialContextStillFires(t *testing.T) {
	// Intent plus location is enough; missing slots just stay off the URL.
	l := &recordingLauncher{}
	d := newTestDispatcher(l)

	ctx := models.ConversationContext{Category: models.CategoryLodging, Location: "Zadar"}
	ctx, res := d.MaybeDispatch(ctx)
	require.Equal(t, models.OutcomeDispatched, res.Outcome)

	parsed, _ := url.Parse(res.URL)
	q := parsed.Query()
	assert.Equal(t, "Zadar", q.Get("location"))
	assert.Empty(t, q.Get("partySize"))
	assert.Empty(t, q.Get("checkin"))

	// Filling a slot changes the key, so it may fire again.
	ctx.PartySize = 3
	_, res = d.MaybeDispatch(ctx)
	assert.Equal(t, models.OutcomeDispatched, res.Outcome)
	assert.Len(t, l.urls, 2)
}

func TestMaybeDispatchRecordsKeyEvenOnLaunchFailure(t *testing.T) {
	l := &recordingLauncher{err: errors.New("launch failed")}
	d := newTestDispatcher(l)

	ctx, res := d.MaybeDispatch(fullContext())
	assert.Equal(t, models.OutcomeDispatched, res.Outcome)

	// One attempt per resolved context, no retry after failure.
	_, res = d.MaybeDispatch(ctx)
	assert.Equal(t, models.SkipAlreadyDispatched, res.Reason)
	assert.Len(t, l.urls, 1)
}

func TestDedupeKey(t *testing.T) {
	assert.Equal(t, "split|2|2026-07-12|2026-07-19", DedupeKey(fullContext()))

	partial := models.ConversationContext{Location: "Zadar"}
	assert.Equal(t, "zadar|-|-|-", DedupeKey(partial))

	// Case differences in location collapse to one key.
	upper := fullContext()
	upper.Location = "SPLIT"
	assert.Equal(t, DedupeKey(fullContext()), DedupeKey(upper))
}
