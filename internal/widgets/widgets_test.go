package widgets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/dom"
	"github.com/example/ec-storefront/internal/ui"
)

const widgetsPage = `<html><body>
<a href="/help" data-bs-toggle="tooltip" title="Get help">?</a>
<div class="quantity-control">
  <button class="quantity-decrease">-</button>
  <input class="quantity-input" value="2">
  <button class="quantity-increase">+</button>
</div>
<form id="searchForm">
  <input name="q" value="pizza">
  <input name="cuisine" value="">
  <select name="rating"><option value="" selected>Any</option><option value="4">4+</option></select>
  <input type="submit" name="go" value="">
</form>
<a class="confirm-action" id="delete" href="/delete" data-confirm-message="Delete it?">Delete</a>
<a class="confirm-action" id="cancel" href="/cancel">Cancel</a>
<input id="password" type="password">
<button class="toggle-password" data-target="password"><i class="fas fa-eye"></i></button>
<input type="file" class="custom-file-input" id="photo" data-preview="photo-preview">
<label for="photo">CHOOSE FILE</label>
<img id="photo-preview" style="display: none">
<input type="radio" class="rating-input" id="star1" value="1">
<input type="radio" class="rating-input" id="star4" value="4">
<span id="rating-display"></span>
</body></html>`

func newTestPage(t *testing.T) *dom.Page {
	t.Helper()
	page, err := dom.ParseString(widgetsPage)
	require.NoError(t, err)
	return page
}

type manualScheduler struct {
	pending []func()
}

type manualTimer struct{}

func (manualTimer) Stop() bool { return false }

func (s *manualScheduler) AfterFunc(_ time.Duration, fn func()) ui.Timer {
	s.pending = append(s.pending, fn)
	return manualTimer{}
}

func (s *manualScheduler) fire() {
	for _, fn := range s.pending {
		fn()
	}
	s.pending = nil
}

func TestBindTooltips(t *testing.T) {
	page := newTestPage(t)

	n := BindTooltips(page)

	assert.Equal(t, 1, n)
	el := page.Find(`[data-bs-toggle="tooltip"]`)
	assert.Equal(t, "Get help", el.AttrOr("aria-label", ""))
	assert.Equal(t, "true", el.AttrOr("data-tooltip-initialized", ""))
}

func TestBindQuantitySteppers(t *testing.T) {
	page := newTestPage(t)
	ctx := context.Background()
	require.Equal(t, 1, BindQuantitySteppers(page))
	input := page.Find(".quantity-input")

	page.Click(ctx, page.Find(".quantity-increase"))
	assert.Equal(t, "3", input.AttrOr("value", ""))

	for i := 0; i < 5; i++ {
		page.Click(ctx, page.Find(".quantity-decrease"))
	}
	assert.Equal(t, "1", input.AttrOr("value", ""))
}

func TestBindSearchForm_PrunesEmptyFields(t *testing.T) {
	page := newTestPage(t)
	scheduler := &manualScheduler{}
	require.Equal(t, 1, BindSearchForm(page, scheduler))
	form := page.ByID("searchForm")

	page.Dispatch(context.Background(), form, dom.NewEvent(dom.EventSubmit))

	values := FormValues(form)
	assert.Equal(t, "pizza", values.Get("q"))
	assert.NotContains(t, values, "cuisine")
	assert.NotContains(t, values, "rating")
	assert.NotContains(t, values, "go")
	_, submitDisabled := form.Find(`input[type="submit"]`).Attr("disabled")
	assert.False(t, submitDisabled)

	scheduler.fire()

	values = FormValues(form)
	assert.Contains(t, values, "cuisine")
	assert.Contains(t, values, "rating")
}

func TestBindSearchForm_NoForm(t *testing.T) {
	page, err := dom.ParseString("<html><body></body></html>")
	require.NoError(t, err)

	assert.Equal(t, 0, BindSearchForm(page, &manualScheduler{}))
}

func TestBindConfirmActions(t *testing.T) {
	page := newTestPage(t)
	ctx := context.Background()
	var asked []string
	answer := false
	require.Equal(t, 2, BindConfirmActions(page, ConfirmFunc(func(message string) bool {
		asked = append(asked, message)
		return answer
	})))

	declined := page.Click(ctx, page.ByID("delete"))
	answer = true
	accepted := page.Click(ctx, page.ByID("cancel"))

	assert.True(t, declined.DefaultPrevented())
	assert.False(t, accepted.DefaultPrevented())
	assert.Equal(t, []string{"Delete it?", DefaultConfirmMessage}, asked)
}

func TestBindPasswordToggles(t *testing.T) {
	page := newTestPage(t)
	ctx := context.Background()
	require.Equal(t, 1, BindPasswordToggles(page))
	button := page.Find(".toggle-password")
	input := page.ByID("password")

	page.Click(ctx, button)
	assert.Equal(t, "text", input.AttrOr("type", ""))
	assert.Equal(t, 1, button.Find("i.fa-eye-slash").Length())

	page.Click(ctx, button)
	assert.Equal(t, "password", input.AttrOr("type", ""))
	assert.Equal(t, 1, button.Find("i.fa-eye").Length())
}

func TestBindFilePreviews(t *testing.T) {
	page := newTestPage(t)
	ctx := context.Background()
	require.Equal(t, 1, BindFilePreviews(page))
	input := page.ByID("photo")
	preview := page.ByID("photo-preview")
	label := page.Find(`label[for="photo"]`)

	e := dom.NewEvent(dom.EventChange)
	e.Files = []dom.File{{Name: "dish.png", ContentType: "image/png", Data: []byte("png")}}
	page.Dispatch(ctx, input, e)

	assert.Equal(t, "data:image/png;base64,cG5n", preview.AttrOr("src", ""))
	assert.Equal(t, "display: block", preview.AttrOr("style", ""))
	assert.Equal(t, "dish.png", label.Text())

	page.Dispatch(ctx, input, dom.NewEvent(dom.EventChange))

	assert.Equal(t, "", preview.AttrOr("src", "x"))
	assert.Equal(t, "display: none", preview.AttrOr("style", ""))
	assert.Equal(t, ChooseFileLabel, label.Text())
}

func TestBindStarRatings(t *testing.T) {
	page := newTestPage(t)
	ctx := context.Background()
	require.Equal(t, 2, BindStarRatings(page))
	display := page.ByID("rating-display")

	page.Dispatch(ctx, page.ByID("star4"), dom.NewEvent(dom.EventChange))
	assert.Equal(t, "4 STARS", display.Text())

	page.Dispatch(ctx, page.ByID("star1"), dom.NewEvent(dom.EventChange))
	assert.Equal(t, "1 STAR", display.Text())
}

func TestStarLabel(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"1", "1 STAR"},
		{"2", "2 STARS"},
		{"2.5", "2.5 STARS"},
		{"1.0", "1.0 STAR"},
		{"", " STAR"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, StarLabel(tt.value))
		})
	}
}
