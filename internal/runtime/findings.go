package runtime

import (
	"context"
	"log/slog"

	"github.com/risor-io/risor/object"
)

// Finding severities.
const (
	SeverityFail = "fail"
	SeverityWarn = "warn"
)

// Finding is one problem reported by a policy script.
type Finding struct {
	Policy   string `json:"policy" yaml:"policy"`
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}

// Failed reports whether any finding has fail severity.
func Failed(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityFail {
			return true
		}
	}
	return false
}

// collector accumulates the findings of one script run.
type collector struct {
	policy   string
	findings []Finding
}

// builtin returns the host function fail(msg) or warn(msg).
func (c *collector) builtin(name, severity string) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		msg, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("%s: message must be a string, got %s", name, args[0].Type())
		}
		c.findings = append(c.findings, Finding{
			Policy:   c.policy,
			Severity: severity,
			Message:  msg.Value(),
		})
		return object.Nil
	})
}

// logObject provides log.Debug/Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) {
	l.logger.Debug(msg)
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
