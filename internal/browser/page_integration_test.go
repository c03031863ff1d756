// internal/browser/page_integration_test.go
package browser_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/quickapply-cli/internal/browser"
	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
	"github.com/xkilldash9x/quickapply-cli/internal/wizard"
)

var chromeBinaries = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"}

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	for _, bin := range chromeBinaries {
		if _, err := exec.LookPath(bin); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary found in PATH")
}

func fixtureSelectors() config.SelectorsConfig {
	return config.SelectorsConfig{
		ListingCard:     "li.card",
		ListingIDAttr:   "data-job-id",
		ListingTitle:    "a.title",
		EligibleMarker:  ".easy",
		AppliedMarker:   ".state",
		AppliedText:     "applied",
		FilterToggle:    "#filter",
		FilterActive:    "#filter[aria-checked='true']",
		RevealMore:      "#next",
		ApplyButton:     "button.apply",
		WizardRoot:      ".modal",
		SuccessSurface:  ".success",
		DismissButton:   "button[aria-label='Dismiss']",
		DiscardButton:   "button.discard",
		ScrollContainer: ".results",
	}
}

type fixture struct {
	manager *browser.Manager
	page    *browser.Page
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	requireChrome(t)

	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	t.Cleanup(srv.Close)

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	mgr, err := browser.NewManager(ctx, config.BrowserConfig{
		Headless:          true,
		StartURL:          srv.URL + "/listings.html",
		NavigationTimeout: 20 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	delays := timing.Delays{PollInterval: 50 * time.Millisecond, PollAttempts: 20}
	p, err := mgr.Page(fixtureSelectors(), delays, timing.RealClock{})
	require.NoError(t, err)
	return &fixture{manager: mgr, page: p}
}

func TestPageListingSurface(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	cards, err := f.page.Listings(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, page.ListingCard{ID: "101", Title: "Backend Engineer", Visible: true, Eligible: true}, cards[0])
	assert.True(t, cards[1].Applied)
	assert.False(t, cards[2].Eligible)

	active, err := f.page.FilterActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
	require.NoError(t, f.page.ApplyFilter(ctx))
	active, err = f.page.FilterActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	revealed, err := f.page.RevealMore(ctx)
	require.NoError(t, err)
	assert.True(t, revealed)
	cards, err = f.page.Listings(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 4)

	assert.ErrorIs(t, f.page.OpenListing(ctx, "999"), browser.ErrElementNotFound)
}

func TestPageWizardRoundTrip(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	present, err := f.page.WizardPresent(ctx)
	require.NoError(t, err)
	assert.False(t, present)

	require.NoError(t, f.page.OpenListing(ctx, "101"))
	opened, err := f.page.OpenWizard(ctx)
	require.NoError(t, err)
	require.True(t, opened)

	controls, err := f.page.Controls(ctx)
	require.NoError(t, err)
	require.Len(t, controls, 4, "the hidden token input is not a control")

	byLabel := map[string]page.Control{}
	for _, c := range controls {
		byLabel[c.Label] = c
	}
	first := byLabel["First name"]
	assert.Equal(t, page.KindText, first.Kind)
	assert.True(t, first.Required)

	country := byLabel["Country"]
	require.Equal(t, page.KindSelect, country.Kind)
	assert.Equal(t, "Select an option", country.Value)
	require.Len(t, country.Options, 3)

	auth := byLabel["Are you legally authorized to work in this country?"]
	require.Equal(t, page.KindRadio, auth.Kind)
	require.Len(t, auth.Options, 2)

	terms := byLabel["I agree to the terms"]
	assert.Equal(t, page.KindCheckbox, terms.Kind)

	require.NoError(t, f.page.SetValue(ctx, first.Ref, "Ada"))
	require.NoError(t, f.page.SelectOption(ctx, country.Ref, country.Options[2]))
	require.NoError(t, f.page.SelectOption(ctx, auth.Ref, auth.Options[0]))
	require.NoError(t, f.page.SetChecked(ctx, terms.Ref, true))

	controls, err = f.page.Controls(ctx)
	require.NoError(t, err)
	for _, c := range controls {
		switch c.Ref {
		case first.Ref:
			assert.Equal(t, "Ada", c.Value)
		case country.Ref:
			assert.Equal(t, "India", c.Value)
		case auth.Ref:
			assert.Equal(t, "Yes", c.Value)
		case terms.Ref:
			assert.True(t, c.Checked)
		}
	}

	buttons, err := f.page.Buttons(ctx)
	require.NoError(t, err)
	var submit page.Button
	for _, b := range buttons {
		if b.Text == "Submit application" {
			submit = b
		}
	}
	require.NotEmpty(t, submit.Ref)
	require.NoError(t, f.page.Click(ctx, submit.Ref))

	signal, err := wizard.NewDetector(nil).Detect(ctx, f.page)
	require.NoError(t, err)
	assert.Equal(t, wizard.SignalSuccessSurface, signal)

	surfaces, err := f.page.SuccessSurfaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Your application was sent."}, surfaces)

	assert.NoError(t, f.page.Toast(ctx, "Application submitted", "success"))
	body, err := f.page.BodyText(ctx)
	require.NoError(t, err)
	assert.Contains(t, body, "Application submitted")
}

func TestPageDismissAndConfirm(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.page.OpenWizard(ctx)
	require.NoError(t, err)
	require.NoError(t, f.page.DismissWizard(ctx))
	present, err := f.page.WizardPresent(ctx)
	require.NoError(t, err)
	assert.False(t, present)

	injected, err := f.page.InjectConfirm(ctx)
	require.NoError(t, err)
	assert.False(t, injected, "nothing to confirm without a wizard")

	_, err = f.page.OpenWizard(ctx)
	require.NoError(t, err)
	injected, err = f.page.InjectConfirm(ctx)
	require.NoError(t, err)
	assert.True(t, injected)
	present, err = f.page.WizardPresent(ctx)
	require.NoError(t, err)
	assert.False(t, present)
}
