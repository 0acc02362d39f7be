package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolateColor(t *testing.T) {
	assert.Equal(t, "#000000", InterpolateColor("#000000", "#ffffff", 0))
	assert.Equal(t, "#ffffff", InterpolateColor("#000000", "#ffffff", 1))
	assert.Equal(t, "#7f7f7f", InterpolateColor("#000000", "#ffffff", 0.5))
}

func TestParseHexColor(t *testing.T) {
	r, g, b := ParseHexColor("#cba6f7")
	assert.Equal(t, [3]uint8{0xcb, 0xa6, 0xf7}, [3]uint8{r, g, b})

	r, g, b = ParseHexColor("bad")
	assert.Equal(t, [3]uint8{}, [3]uint8{r, g, b})
}

func TestApplyGradient(t *testing.T) {
	assert.Empty(t, ApplyGradient("", "#000000", "#ffffff"))
	assert.Contains(t, ApplyGradient("ab", "#000000", "#ffffff"), "a")
}

func TestCurrentIsStable(t *testing.T) {
	a := Current()
	assert.Same(t, a, Current())
	assert.Equal(t, "catppuccin-mocha", a.Name)
	assert.Same(t, a.S(), a.S())
}
