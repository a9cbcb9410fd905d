package color

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForKey(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9A-F]{6}$`)

	a := ForKey("auto_0123456789")
	assert.Regexp(t, hex, a)
	assert.Equal(t, a, ForKey("auto_0123456789"))
	assert.NotEqual(t, a, ForKey("auto_9876543210"))
	assert.Regexp(t, hex, ForKey(""))
}

func TestHSLToRGB(t *testing.T) {
	r, g, b := hslToRGB(0, 0, 0.5)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)

	r, g, b = hslToRGB(0, 1, 0.5)
	assert.Equal(t, uint8(255), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}
