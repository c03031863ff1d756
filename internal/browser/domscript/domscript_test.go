// internal/browser/domscript/domscript_test.go
package domscript_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/xkilldash9x/quickapply-cli/internal/browser/domscript"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	tmpl := `(function (op, args) {
	const sel = /*{{QUICKAPPLY_SELECTORS}}*/;
	return { result: sel[op] };
})`

	t.Run("should inject selectors into template", func(t *testing.T) {
		t.Parallel()
		script, err := Build(tmpl, `{"wizard_root":".modal"}`)
		require.NoError(t, err)
		assert.Contains(t, script, `const sel = {"wizard_root":".modal"};`)
		assert.NotContains(t, script, SelectorsPlaceholder)
	})

	t.Run("should inject an empty object for a blank table", func(t *testing.T) {
		t.Parallel()
		script, err := Build(tmpl, "  ")
		require.NoError(t, err)
		assert.Contains(t, script, "const sel = {};")
	})

	t.Run("should return error for an empty template", func(t *testing.T) {
		t.Parallel()
		_, err := Build("", `{}`)
		require.Error(t, err)
		assert.EqualError(t, err, "template is empty")
	})

	t.Run("should return error when the placeholder is missing", func(t *testing.T) {
		t.Parallel()
		_, err := Build("(function(){})", `{}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), SelectorsPlaceholder)
	})
}

func TestEmbeddedTemplate(t *testing.T) {
	t.Parallel()

	tmpl := Template()
	require.NotEmpty(t, tmpl)
	assert.Equal(t, 1, strings.Count(tmpl, SelectorsPlaceholder))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(tmpl), "(function"), "script must be a function expression")
	assert.Contains(t, tmpl, RefAttribute)

	for _, op := range []string{
		"listings", "filterActive", "applyFilter", "reveal", "openListing", "openWizard",
		"controls", "setValue", "selectOption", "setChecked", "buttons", "click", "injectConfirm",
		"dismiss", "discard", "successSurfaces", "bodyText", "wizardPresent", "toast",
	} {
		assert.Contains(t, tmpl, "ops."+op+" =", "missing script operation %s", op)
	}
}

func TestInvocation(t *testing.T) {
	t.Parallel()

	t.Run("quotes the operation and passes args verbatim", func(t *testing.T) {
		got := Invocation("  (function (op, args) {})\n", "setValue", `{"ref":"qa-1","value":"Ada"}`)
		assert.Equal(t, `((function (op, args) {}))("setValue", {"ref":"qa-1","value":"Ada"})`, got)
	})

	t.Run("defaults missing args to null", func(t *testing.T) {
		got := Invocation("(function(){})", "bodyText", "")
		assert.True(t, strings.HasSuffix(got, `("bodyText", null)`))
	})
}
