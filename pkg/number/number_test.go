package number

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	inputs := map[string]string{
		"(31) 97629-068":      "3197629068",
		"+55 31 99762-9068":   "5531997629068",
		"5531997629068@c.us":  "5531997629068",
		"abc":                 "",
		"":                    "",
		"３１ 97629068":         "97629068",
		"31.9.7629-068 ramal": "3197629068",
	}
	for raw, want := range inputs {
		got := Clean(raw)
		assert.Equal(t, want, got, raw)
		assert.Equal(t, got, Clean(got), "cleaning must be idempotent for %q", raw)
	}
}

func TestBase(t *testing.T) {
	cases := []struct {
		name     string
		cleaned  string
		base     string
		standard bool
	}{
		{"legacy 10 digits gains the ninth digit", "3197629068", "5531997629068", true},
		{"modern 11 digits", "31997629068", "5531997629068", true},
		{"qualified 12 digits", "553197629068", "553197629068", true},
		{"qualified 13 digits", "5531997629068", "5531997629068", true},
		{"12 digits with implausible area code after 55", "550597629068", "55550597629068", true},
		{"13 digits not starting with 55", "1131997629068", "551131997629068", true},
		{"12 digits not starting with 55", "119976290680", "55119976290680", true},
		{"short input", "12345", "5512345", false},
		{"short input already prefixed", "5512345", "5512345", false},
		{"long input", "99999999999999", "5599999999999999", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base, standard := Base(tc.cleaned, DefaultCountryCode)
			assert.Equal(t, tc.base, base)
			assert.Equal(t, tc.standard, standard)
		})
	}
}

func TestBaseElevenDigitRoundTrip(t *testing.T) {
	for _, in := range []string{"11987654321", "31997629068", "99912345678"} {
		base, standard := Base(in, DefaultCountryCode)
		require.True(t, standard)
		require.Equal(t, "55"+in, base)
		require.Len(t, base, 13)

		candidates, err := Candidates(base, DefaultCountryCode, "net", LegacyFirst)
		require.NoError(t, err)
		assert.Equal(t, []string{"55" + in[:2] + in[3:] + "@net", "55" + in + "@net"}, candidates)
	}
}

func TestCandidates(t *testing.T) {
	candidates, err := Candidates("5531997629068", "55", "s.whatsapp.net", LegacyFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"553197629068@s.whatsapp.net", "5531997629068@s.whatsapp.net"}, candidates)

	candidates, err = Candidates("5531997629068", "55", "s.whatsapp.net", ModernFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"5531997629068@s.whatsapp.net", "553197629068@s.whatsapp.net"}, candidates)

	candidates, err = Candidates("553197629068", "55", "@c.us", LegacyFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"553197629068@c.us"}, candidates)

	for _, base := range []string{"5512345", "55119976290680", ""} {
		_, err = Candidates(base, "55", "net", LegacyFirst)
		var unrecognized *UnrecognizedFormatError
		require.True(t, errors.As(err, &unrecognized), base)
		assert.Equal(t, base, unrecognized.Digits)
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)
	}
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, LegacyFirst, ParseOrder(""))
	assert.Equal(t, LegacyFirst, ParseOrder("legacy_first"))
	assert.Equal(t, LegacyFirst, ParseOrder("whatever"))
	assert.Equal(t, ModernFirst, ParseOrder("modern"))
	assert.Equal(t, ModernFirst, ParseOrder(" MODERN_FIRST "))
	assert.Equal(t, ModernFirst, ParseOrder("9"))
	assert.Equal(t, LegacyFirst, ParseOrder(LegacyFirst.String()))
	assert.Equal(t, ModernFirst, ParseOrder(ModernFirst.String()))
}

func TestIdentifierAndUser(t *testing.T) {
	assert.Equal(t, "5531997629068@net", Identifier("5531997629068", "net"))
	assert.Equal(t, "5531997629068@c.us", Identifier("5531997629068", "@c.us"))
	assert.Equal(t, "5531997629068", Identifier("5531997629068", ""))

	assert.Equal(t, "5531997629068", User("5531997629068@s.whatsapp.net"))
	assert.Equal(t, "5531997629068", User("5531997629068"))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "+55 31 99762-9068", Display("5531997629068@s.whatsapp.net"))
	assert.Equal(t, "abc", Display("abc@s.whatsapp.net"))
	assert.Equal(t, "@net", Display("@net"))
}

func TestErrors(t *testing.T) {
	unrecognized := &UnrecognizedFormatError{Raw: "12-345", Digits: "12345"}
	assert.ErrorIs(t, unrecognized, ErrUnrecognizedFormat)
	assert.Contains(t, unrecognized.Error(), `"12-345"`)
	assert.Contains(t, unrecognized.Error(), "5 digits")

	notFound := &NumberNotFoundError{Raw: "(31) 97629-068", Candidates: []string{"a", "b"}}
	assert.ErrorIs(t, notFound, ErrNumberNotFound)
	assert.NotErrorIs(t, notFound, ErrUnrecognizedFormat)
	assert.Contains(t, notFound.Error(), "(31) 97629-068")
}
