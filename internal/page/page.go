// internal/page/page.go
package page

import "context"

// ControlKind identifies the rendering of a form control.
type ControlKind string

const (
	KindText     ControlKind = "text"
	KindTextArea ControlKind = "textarea"
	KindNumber   ControlKind = "number"
	KindEmail    ControlKind = "email"
	KindTel      ControlKind = "tel"
	KindSelect   ControlKind = "select"
	KindRadio    ControlKind = "radio"
	KindCheckbox ControlKind = "checkbox"
)

// IsChoice reports whether the control picks from a discrete option set.
func (k ControlKind) IsChoice() bool {
	return k == KindSelect || k == KindRadio
}

// Option is one candidate of a constrained-choice control.
type Option struct {
	Text     string `json:"text"`
	Value    string `json:"value"`
	Ref      string `json:"ref,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Control is a snapshot of one visible, enabled control inside the wizard.
// Radio groups are reported once, with every radio in Options.
type Control struct {
	// Ref is an opaque handle that the surface understands (a selector for CDP).
	Ref         string      `json:"ref"`
	Kind        ControlKind `json:"kind"`
	Label       string      `json:"label"`
	Placeholder string      `json:"placeholder"`
	Name        string      `json:"name"`
	ID          string      `json:"id"`
	// Value is the current text, or the selected option's text for choices.
	Value    string   `json:"value"`
	Checked  bool     `json:"checked,omitempty"`
	Required bool     `json:"required,omitempty"`
	Options  []Option `json:"options,omitempty"`
}

// Button is a clickable action inside the wizard (next, review, submit...).
type Button struct {
	Ref   string `json:"ref"`
	Text  string `json:"text"`
	Label string `json:"label"`
}

// ListingCard is one posting as rendered in the listing column.
type ListingCard struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Visible  bool   `json:"visible"`
	Eligible bool   `json:"eligible"`
	Applied  bool   `json:"applied"`
}

// ListingSurface is the part of the page that lists postings.
type ListingSurface interface {
	// Listings returns the rendered postings in document order.
	Listings(ctx context.Context) ([]ListingCard, error)
	// FilterActive reports whether the eligibility filter is currently applied.
	FilterActive(ctx context.Context) (bool, error)
	ApplyFilter(ctx context.Context) error
	// RevealMore advances the visible window (next page, scroll). It reports
	// whether new candidates became visible.
	RevealMore(ctx context.Context) (bool, error)
	OpenListing(ctx context.Context, id string) error
	// OpenWizard clicks the posting's eligibility action and reports whether
	// a wizard surface appeared.
	OpenWizard(ctx context.Context) (bool, error)
}

// WizardSurface is the multi-step form dialog of a single posting.
type WizardSurface interface {
	Controls(ctx context.Context) ([]Control, error)
	SetValue(ctx context.Context, ref, value string) error
	SelectOption(ctx context.Context, ref string, opt Option) error
	SetChecked(ctx context.Context, ref string, checked bool) error
	Buttons(ctx context.Context) ([]Button, error)
	Click(ctx context.Context, ref string) error
	// InjectConfirm dispatches a synthetic confirmation on the wizard form.
	// It reports whether anything was dispatched.
	InjectConfirm(ctx context.Context) (bool, error)
	DismissWizard(ctx context.Context) error
}

// TerminalSurface exposes the read-only signals used to detect a finished
// submission.
type TerminalSurface interface {
	// SuccessSurfaces returns the text of every visible success-styled
	// confirmation element.
	SuccessSurfaces(ctx context.Context) ([]string, error)
	BodyText(ctx context.Context) (string, error)
	WizardPresent(ctx context.Context) (bool, error)
}

// Toaster shows a transient notification on the page.
type Toaster interface {
	Toast(ctx context.Context, text, severity string) error
}

// Page is the whole document the automation drives.
type Page interface {
	ListingSurface
	WizardSurface
	TerminalSurface
	Toaster
}
