// internal/notify/notify.go
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/quickapply-cli/internal/page"
)

// Severity grades a notification.
type Severity string

const (
	Info     Severity = "info"
	Success  Severity = "success"
	Warning  Severity = "warning"
	Error    Severity = "error"
	Critical Severity = "critical"
)

// Level maps a severity onto a zap level.
func (s Severity) Level() zapcore.Level {
	switch s {
	case Warning:
		return zapcore.WarnLevel
	case Error, Critical:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// Category labels the component a notification originates from.
type Category string

const (
	CategoryCampaign Category = "campaign"
	CategoryScanner  Category = "scanner"
	CategoryWizard   Category = "wizard"
	CategoryFill     Category = "fill"
	CategoryDetector Category = "detector"
	CategoryCommand  Category = "command"
)

// Notification is one transient user-facing message.
type Notification struct {
	Text     string
	Severity Severity
	Category Category
	Fields   []zap.Field
}

// Notifier delivers notifications. Implementations must not block for long;
// delivery failures are returned but never abort automation.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier mirrors notifications into the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	fields := append([]zap.Field{
		zap.String("category", string(n.Category)),
		zap.String("severity", string(n.Severity)),
	}, n.Fields...)
	if n.Severity == Critical {
		fields = append(fields, zap.Stack("stack"))
	}
	if ce := l.logger.Check(n.Severity.Level(), n.Text); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

// PageNotifier shows notifications as toasts on the automated page.
type PageNotifier struct {
	toaster page.Toaster
}

func NewPageNotifier(t page.Toaster) *PageNotifier {
	return &PageNotifier{toaster: t}
}

func (p *PageNotifier) Notify(ctx context.Context, n Notification) error {
	return p.toaster.Toast(ctx, n.Text, string(n.Severity))
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if nt == nil {
			continue
		}
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }
