package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToTerminalTextEmpty(t *testing.T) {
	assert.Equal(t, "", ToTerminalText(""))
}

func TestToTerminalTextStripsEmphasis(t *testing.T) {
	out := ToTerminalText("**Mhoro** means *hello*.")
	assert.Equal(t, "Mhoro means hello.", out)
}

func TestToTerminalTextBullets(t *testing.T) {
	out := ToTerminalText("- **Ndeipi** (What is up?)\n- **Bho** (Fine)")
	assert.Contains(t, out, "• Ndeipi (What is up?)")
	assert.Contains(t, out, "• Bho (Fine)")
}

func TestToTerminalTextUnescapesEntities(t *testing.T) {
	out := ToTerminalText("Salt & pepper")
	assert.Contains(t, out, "Salt & pepper")
}

func TestToTerminalTextKeepsParagraphsApart(t *testing.T) {
	out := ToTerminalText("First paragraph.\n\nSecond paragraph.")
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines, "First paragraph.")
	assert.Contains(t, lines, "Second paragraph.")
}
