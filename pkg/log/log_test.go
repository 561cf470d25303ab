package log

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "553199762xxxx@s.whatsapp.net", MaskPhone("5531997629068@s.whatsapp.net"))
	assert.Equal(t, "553199762xxxx", MaskPhone("5531997629068"))
	assert.Equal(t, "xxxx", MaskPhone("1234"))
	assert.Equal(t, "123", MaskPhone("123"))
	assert.Equal(t, "@net", MaskPhone("@net"))
}

func TestMaskPhoneMultiByte(t *testing.T) {
	masked := MaskPhone("(31) 9762-９０６８")
	assert.True(t, utf8.ValidString(masked))
	assert.Equal(t, "(31) 9762-xxxx", masked)

	masked = MaskPhone("３１９７６２９０６８@s.whatsapp.net")
	assert.True(t, utf8.ValidString(masked))
	assert.Equal(t, "３１９７６２xxxx@s.whatsapp.net", masked)

	assert.Equal(t, "９０６", MaskPhone("９０６"))
}
