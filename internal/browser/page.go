// internal/browser/page.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickapply-cli/internal/browser/domscript"
	"github.com/xkilldash9x/quickapply-cli/internal/config"
	"github.com/xkilldash9x/quickapply-cli/internal/page"
	"github.com/xkilldash9x/quickapply-cli/internal/timing"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrElementNotFound is returned when a ref no longer resolves to a node.
var ErrElementNotFound = errors.New("element not found")

// selectorTable is the script-side view of the selector configuration.
type selectorTable struct {
	ListingCard     string `json:"listing_card"`
	ListingIDAttr   string `json:"listing_id_attr"`
	ListingTitle    string `json:"listing_title"`
	EligibleMarker  string `json:"eligible_marker"`
	AppliedMarker   string `json:"applied_marker"`
	AppliedText     string `json:"applied_text"`
	FilterToggle    string `json:"filter_toggle"`
	FilterActive    string `json:"filter_active"`
	RevealMore      string `json:"reveal_more"`
	ApplyButton     string `json:"apply_button"`
	WizardRoot      string `json:"wizard_root"`
	SuccessSurface  string `json:"success_surface"`
	DismissButton   string `json:"dismiss_button"`
	DiscardButton   string `json:"discard_button"`
	ScrollContainer string `json:"scroll_container"`
}

func newSelectorTable(s config.SelectorsConfig) selectorTable {
	return selectorTable(s)
}

// envelope is what every script call returns.
type envelope struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  string              `json:"error"`
}

// Page drives one browser tab through the embedded DOM script. All DOM
// access happens inside the page; Go only sees the JSON snapshots.
type Page struct {
	ctx    context.Context
	script string
	delays timing.Delays
	clock  timing.Clock
	logger *zap.Logger
}

var _ page.Page = (*Page)(nil)

// NewPage binds a Page to a chromedp tab context.
func NewPage(tabCtx context.Context, sel config.SelectorsConfig, delays timing.Delays, clock timing.Clock, logger *zap.Logger) (*Page, error) {
	table, err := json.Marshal(newSelectorTable(sel))
	if err != nil {
		return nil, fmt.Errorf("failed to encode selectors: %w", err)
	}
	script, err := domscript.Build(domscript.Template(), string(table))
	if err != nil {
		return nil, fmt.Errorf("failed to build page script: %w", err)
	}
	if clock == nil {
		clock = timing.RealClock{}
	}
	return &Page{
		ctx:    tabCtx,
		script: script,
		delays: delays,
		clock:  clock,
		logger: logger.Named("page"),
	}, nil
}

// call evaluates one script operation and decodes its result into out.
func (p *Page) call(ctx context.Context, op string, args interface{}, out interface{}) error {
	argsJSON := ""
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("script %s: failed to encode args: %w", op, err)
		}
		argsJSON = string(b)
	}

	opCtx, cancel := CombineContext(p.ctx, ctx)
	defer cancel()

	var raw []byte
	if err := chromedp.Run(opCtx, chromedp.Evaluate(domscript.Invocation(p.script, op, argsJSON), &raw)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("script %s: %w", op, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("script %s: malformed result: %w", op, err)
	}
	if env.Error != "" {
		p.logger.Debug("Page script reported an error.", zap.String("op", op), zap.String("error", env.Error))
		return fmt.Errorf("script %s: %s", op, env.Error)
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("script %s: failed to decode result: %w", op, err)
	}
	return nil
}

// act runs an operation that reports whether it found its target.
func (p *Page) act(ctx context.Context, op string, args interface{}) (bool, error) {
	var ok bool
	if err := p.call(ctx, op, args, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *Page) mustAct(ctx context.Context, op, ref string, args interface{}) error {
	ok, err := p.act(ctx, op, args)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", op, ref, ErrElementNotFound)
	}
	return nil
}

func (p *Page) waitFor(ctx context.Context, pred timing.Predicate) (bool, error) {
	err := timing.WaitUntil(ctx, p.clock, pred, p.delays.PollAttempts, p.delays.PollInterval)
	if errors.Is(err, timing.ErrWaitExhausted) {
		return false, nil
	}
	return err == nil, err
}

// -- ListingSurface --

func (p *Page) Listings(ctx context.Context) ([]page.ListingCard, error) {
	var cards []page.ListingCard
	if err := p.call(ctx, "listings", nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (p *Page) FilterActive(ctx context.Context) (bool, error) {
	return p.act(ctx, "filterActive", nil)
}

func (p *Page) ApplyFilter(ctx context.Context) error {
	ok, err := p.act(ctx, "applyFilter", nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("filter toggle: %w", ErrElementNotFound)
	}
	return nil
}

// RevealMore pages or scrolls the listing column, then polls until the set
// of rendered cards changes.
func (p *Page) RevealMore(ctx context.Context) (bool, error) {
	before, err := p.cardSignature(ctx)
	if err != nil {
		return false, err
	}
	acted, err := p.act(ctx, "reveal", nil)
	if err != nil || !acted {
		return false, err
	}
	return p.waitFor(ctx, func(ctx context.Context) (bool, error) {
		after, err := p.cardSignature(ctx)
		if err != nil {
			return false, err
		}
		return after != before, nil
	})
}

// cardSignature identifies the rendered window: pagination swaps the cards
// without changing their count.
func (p *Page) cardSignature(ctx context.Context) (string, error) {
	cards, err := p.Listings(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return strings.Join(ids, ","), nil
}

func (p *Page) OpenListing(ctx context.Context, id string) error {
	return p.mustAct(ctx, "openListing", id, map[string]string{"id": id})
}

func (p *Page) OpenWizard(ctx context.Context) (bool, error) {
	clicked, err := p.act(ctx, "openWizard", nil)
	if err != nil || !clicked {
		return false, err
	}
	return p.waitFor(ctx, p.WizardPresent)
}

// -- WizardSurface --

func (p *Page) Controls(ctx context.Context) ([]page.Control, error) {
	var controls []page.Control
	if err := p.call(ctx, "controls", nil, &controls); err != nil {
		return nil, err
	}
	return controls, nil
}

func (p *Page) SetValue(ctx context.Context, ref, value string) error {
	return p.mustAct(ctx, "setValue", ref, map[string]string{"ref": ref, "value": value})
}

func (p *Page) SelectOption(ctx context.Context, ref string, opt page.Option) error {
	return p.mustAct(ctx, "selectOption", ref, struct {
		Ref    string      `json:"ref"`
		Option page.Option `json:"option"`
	}{ref, opt})
}

func (p *Page) SetChecked(ctx context.Context, ref string, checked bool) error {
	return p.mustAct(ctx, "setChecked", ref, struct {
		Ref     string `json:"ref"`
		Checked bool   `json:"checked"`
	}{ref, checked})
}

func (p *Page) Buttons(ctx context.Context) ([]page.Button, error) {
	var buttons []page.Button
	if err := p.call(ctx, "buttons", nil, &buttons); err != nil {
		return nil, err
	}
	return buttons, nil
}

func (p *Page) Click(ctx context.Context, ref string) error {
	return p.mustAct(ctx, "click", ref, map[string]string{"ref": ref})
}

func (p *Page) InjectConfirm(ctx context.Context) (bool, error) {
	return p.act(ctx, "injectConfirm", nil)
}

// DismissWizard closes the dialog and confirms the discard prompt if the
// site asks for one.
func (p *Page) DismissWizard(ctx context.Context) error {
	closed, err := p.act(ctx, "dismiss", nil)
	if err != nil || !closed {
		return err
	}
	_, err = p.waitFor(ctx, func(ctx context.Context) (bool, error) {
		discarded, err := p.act(ctx, "discard", nil)
		if err != nil || discarded {
			return discarded, err
		}
		present, err := p.WizardPresent(ctx)
		return !present, err
	})
	return err
}

// -- TerminalSurface --

func (p *Page) SuccessSurfaces(ctx context.Context) ([]string, error) {
	var texts []string
	if err := p.call(ctx, "successSurfaces", nil, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

func (p *Page) BodyText(ctx context.Context) (string, error) {
	var body string
	if err := p.call(ctx, "bodyText", nil, &body); err != nil {
		return "", err
	}
	return body, nil
}

func (p *Page) WizardPresent(ctx context.Context) (bool, error) {
	return p.act(ctx, "wizardPresent", nil)
}

// -- Toaster --

func (p *Page) Toast(ctx context.Context, text, severity string) error {
	_, err := p.act(ctx, "toast", map[string]string{"text": text, "severity": severity})
	return err
}
