package ident

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already valid", "MyModule", "MyModule"},
		{"dots replaced", "My.Module", "My_Module"},
		{"dashes and spaces", "my-cool module", "my_cool_module"},
		{"leading digit prepended", "1Foo", "_1Foo"},
		{"leading symbol replaced", "-Foo", "_Foo"},
		{"digits after start kept", "Foo123", "Foo123"},
		{"empty", "", "_"},
		{"keyword", "type", "type_"},
		{"keyword func", "func", "func_"},
		{"unicode letters", "Módulo日本", "Módulo日本"},
		{"leading combining mark", "\u0301x", "_x"},
		{"leading combining mark replaced", "\u0301abc", "_abc"},
		{"leading connector replaced", "\u203fabc", "_abc"},
		{"leading non-ascii digit prepended", "\u0663x", "_\u0663x"},
		{"leading letter number replaced", "\u216bx", "_x"},
		{"emoji replaced", "mod🙂", "mod_"},
		{"invalid utf8", "a\xffb", "a_b"},
		{"only symbols", "!!!", "___"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		"", "_", "0", "00", "a", "1Foo", "Foo.Bar.Baz", "var", "if_", "\u200b",
		"\u0301", "ǅungla", "x\u200dy", "..", "a b\tc\n", "\xff\xfe", "日本語",
		"MyMod-1.2", "break", "_1", "Ⅻ", "\u203fstart",
	}

	for _, input := range inputs {
		out := Sanitize(input)

		assert.NotEmpty(t, out, "input %q", input)
		assert.True(t, utf8.ValidString(out), "input %q", input)
		assert.True(t, IsValid(out), "input %q produced invalid %q", input, out)
		assert.Equal(t, out, Sanitize(out), "not idempotent for %q", input)
	}
}

func FuzzSanitize(f *testing.F) {
	for _, seed := range []string{"", "MyMod", "1Foo", "\u0301abc", "\u203fabc", "type", "a\xffb", "日本", "_"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		out := Sanitize(input)

		assert.NotEmpty(t, out)
		assert.True(t, IsValid(out), "input %q produced invalid %q", input, out)
		assert.Equal(t, out, Sanitize(out), "not idempotent for %q", input)
	})
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("Foo"))
	assert.True(t, IsValid("_1"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("1a"))
	assert.False(t, IsValid("a.b"))
	assert.False(t, IsValid("return"))
}
