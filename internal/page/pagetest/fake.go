// internal/page/pagetest/fake.go
package pagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xkilldash9x/quickapply-cli/internal/page"
)

// ErrNoElement mimics a lookup against a node that is not rendered.
var ErrNoElement = errors.New("no such element")

// SubmitEffect is what the fake page shows once a wizard is submitted.
type SubmitEffect int

const (
	// CloseWizard removes the wizard surface.
	CloseWizard SubmitEffect = iota
	// ShowSuccessSurface keeps the wizard but renders a success banner.
	ShowSuccessSurface
	// ShowBodyText adds a confirmation sentence to the page text.
	ShowBodyText
	// NoSignal accepts the submission without any visible confirmation.
	NoSignal
)

// WizardStep is one page of a scripted wizard.
type WizardStep struct {
	Controls []page.Control
	Buttons  []page.Button
	// Advance and Submit name the button refs that move forward or submit.
	Advance string
	Submit  string
}

// Wizard scripts the dialog opened for a listing.
type Wizard struct {
	Steps          []WizardStep
	OnSubmit       SubmitEffect
	ConfirmSubmits bool
}

// Page is an in-memory page.Page. Every exported field may be set before
// use; after that, access it only through the methods.
type Page struct {
	mu sync.Mutex

	Cards     []page.ListingCard
	MoreCards [][]page.ListingCard
	Wizards   map[string]func() *Wizard
	Body      string
	FilterOn  bool
	// LoseFilterOnOpen clears the eligibility filter whenever a listing opens.
	LoseFilterOnOpen bool
	ApplyFilterErr   error
	ClickErr         map[string]error

	current   string
	wizard    *Wizard
	step      int
	open      bool
	submitted bool

	Values       map[string]string
	Selected     map[string]page.Option
	Checked      map[string]bool
	Clicks       []string
	Opened       []string
	FilterCalls  int
	RevealCalls  int
	Dismissals   int
	Confirms     int
	Toasts       []string
	Submissions  []string
	ControlCalls int
}

// New returns an empty page.
func New() *Page {
	return &Page{
		Wizards:  map[string]func() *Wizard{},
		ClickErr: map[string]error{},
		Values:   map[string]string{},
		Selected: map[string]page.Option{},
		Checked:  map[string]bool{},
	}
}

var _ page.Page = (*Page)(nil)

func (p *Page) Listings(context.Context) ([]page.ListingCard, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]page.ListingCard, len(p.Cards))
	copy(out, p.Cards)
	return out, nil
}

func (p *Page) FilterActive(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.FilterOn, nil
}

func (p *Page) ApplyFilter(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.FilterCalls++
	if p.ApplyFilterErr != nil {
		return p.ApplyFilterErr
	}
	p.FilterOn = true
	return nil
}

func (p *Page) RevealMore(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RevealCalls++
	if len(p.MoreCards) == 0 {
		return false, nil
	}
	p.Cards = p.MoreCards[0]
	p.MoreCards = p.MoreCards[1:]
	return true, nil
}

func (p *Page) OpenListing(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.Cards {
		if c.ID == id {
			p.current = id
			p.Opened = append(p.Opened, id)
			if p.LoseFilterOnOpen {
				p.FilterOn = false
			}
			return nil
		}
	}
	return fmt.Errorf("listing %s: %w", id, ErrNoElement)
}

func (p *Page) OpenWizard(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	factory := p.Wizards[p.current]
	if factory == nil {
		return false, nil
	}
	p.wizard = factory()
	p.step = 0
	p.open = true
	p.submitted = false
	return true, nil
}

func (p *Page) currentStep() (WizardStep, bool) {
	if !p.open || p.wizard == nil || len(p.wizard.Steps) == 0 {
		return WizardStep{}, false
	}
	return p.wizard.Steps[p.step], true
}

func (p *Page) Controls(context.Context) ([]page.Control, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ControlCalls++
	step, ok := p.currentStep()
	if !ok {
		return nil, nil
	}
	out := make([]page.Control, len(step.Controls))
	for i, c := range step.Controls {
		if v, ok := p.Values[c.Ref]; ok {
			c.Value = v
		}
		if o, ok := p.Selected[c.Ref]; ok {
			c.Value = o.Text
		}
		if v, ok := p.Checked[c.Ref]; ok {
			c.Checked = v
		}
		out[i] = c
	}
	return out, nil
}

func (p *Page) SetValue(_ context.Context, ref, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Values[ref] = value
	return nil
}

func (p *Page) SelectOption(_ context.Context, ref string, opt page.Option) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Selected[ref] = opt
	return nil
}

func (p *Page) SetChecked(_ context.Context, ref string, checked bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Checked[ref] = checked
	return nil
}

func (p *Page) Buttons(context.Context) ([]page.Button, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	step, ok := p.currentStep()
	if !ok {
		return nil, nil
	}
	out := make([]page.Button, len(step.Buttons))
	copy(out, step.Buttons)
	return out, nil
}

func (p *Page) Click(_ context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ClickErr[ref]; err != nil {
		return err
	}
	step, ok := p.currentStep()
	if !ok {
		return fmt.Errorf("click %s: %w", ref, ErrNoElement)
	}
	p.Clicks = append(p.Clicks, ref)
	switch ref {
	case step.Submit:
		p.submit()
	case step.Advance:
		if p.step < len(p.wizard.Steps)-1 {
			p.step++
		}
	}
	return nil
}

func (p *Page) InjectConfirm(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return false, nil
	}
	p.Confirms++
	if p.wizard.ConfirmSubmits {
		p.submit()
	}
	return true, nil
}

func (p *Page) submit() {
	p.submitted = true
	p.Submissions = append(p.Submissions, p.current)
	if p.wizard.OnSubmit == CloseWizard {
		p.open = false
	}
}

func (p *Page) DismissWizard(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Dismissals++
	p.open = false
	p.wizard = nil
	return nil
}

func (p *Page) SuccessSurfaces(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitted && p.wizard != nil && p.wizard.OnSubmit == ShowSuccessSurface {
		return []string{"Your application was sent to the employer."}, nil
	}
	return nil, nil
}

func (p *Page) BodyText(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitted && p.wizard != nil && p.wizard.OnSubmit == ShowBodyText {
		return p.Body + " Application submitted", nil
	}
	return p.Body, nil
}

func (p *Page) WizardPresent(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open, nil
}

func (p *Page) Toast(_ context.Context, text, severity string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Toasts = append(p.Toasts, severity+": "+text)
	return nil
}

// Snapshot returns copies of the counters tests usually assert on.
func (p *Page) Snapshot() (clicks, opened, submissions []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Clicks...), append([]string(nil), p.Opened...), append([]string(nil), p.Submissions...)
}

// LinearWizard builds a wizard of n steps, each asking for a first name.
// Every step but the last has a Next button; the last has Submit.
func LinearWizard(n int, effect SubmitEffect) func() *Wizard {
	return func() *Wizard {
		w := &Wizard{OnSubmit: effect}
		for i := 0; i < n; i++ {
			step := WizardStep{
				Controls: []page.Control{{
					Ref:   fmt.Sprintf("first-%d", i),
					Kind:  page.KindText,
					Label: "First Name",
				}},
			}
			if i == n-1 {
				step.Buttons = []page.Button{{Ref: "submit", Text: "Submit application"}}
				step.Submit = "submit"
			} else {
				ref := fmt.Sprintf("next-%d", i)
				step.Buttons = []page.Button{{Ref: "dismiss", Label: "Dismiss"}, {Ref: ref, Text: "Next"}}
				step.Advance = ref
			}
			w.Steps = append(w.Steps, step)
		}
		return w
	}
}

// DeadEndWizard never exposes a usable action.
func DeadEndWizard() func() *Wizard {
	return func() *Wizard {
		return &Wizard{
			OnSubmit: NoSignal,
			Steps: []WizardStep{{
				Controls: []page.Control{{Ref: "q", Kind: page.KindText, Label: "Anything else?"}},
				Buttons:  []page.Button{{Ref: "save", Text: "Save"}},
			}},
		}
	}
}
