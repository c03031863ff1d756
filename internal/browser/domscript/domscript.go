// internal/browser/domscript/domscript.go
package domscript

import (
	_ "embed"
	"fmt"
	"strings"
)

// SelectorsPlaceholder is replaced in the template with the JSON encoded
// selector table.
const SelectorsPlaceholder = "/*{{QUICKAPPLY_SELECTORS}}*/"

// RefAttribute tags every control and button the script reports.
const RefAttribute = "data-qa-ref"

//go:embed domscript.js
var template string

// Template returns the embedded script source.
func Template() string {
	return template
}

// Build injects the selector configuration into the template. The result is
// a single function expression taking (op, args).
func Build(template, selectorsJSON string) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("template is empty")
	}
	if !strings.Contains(template, SelectorsPlaceholder) {
		return "", fmt.Errorf("template does not contain the required placeholder: %s", SelectorsPlaceholder)
	}
	if strings.TrimSpace(selectorsJSON) == "" {
		selectorsJSON = "{}"
	}
	return strings.Replace(template, SelectorsPlaceholder, selectorsJSON, 1), nil
}

// Invocation renders a call of the built script for one operation. argsJSON
// must already be valid JSON.
func Invocation(script, op, argsJSON string) string {
	if argsJSON == "" {
		argsJSON = "null"
	}
	return fmt.Sprintf("(%s)(%q, %s)", strings.TrimSpace(script), op, argsJSON)
}
