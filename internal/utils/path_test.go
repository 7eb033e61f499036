package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"src/main.lua", "src/main.lua"},
		{`src\images\player.ase`, "src/images/player.ase"},
		{"./src/a/../b.lua", "src/b.lua"},
		{"main.plua", "main.plua"},
	}

	for _, test := range tests {
		result := NormalizeKey(test.input)
		assert.Equal(t, test.expected, result, "NormalizeKey(%q)", test.input)
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"sprite.ase", "ase"},
		{"sprite.ASEPRITE", "aseprite"},
		{"dir.d/Main.PLua", "plua"},
		{"Makefile", ""},
		{"archive.tar.gz", "gz"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, Ext(test.input), "Ext(%q)", test.input)
	}
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "c.png"), ReplaceExt(filepath.Join("a", "b", "c.ase"), "png"))
	assert.Equal(t, "main.lua", ReplaceExt("main.plua", "lua"))
	assert.Equal(t, "noext.lua", ReplaceExt("noext", "lua"))
}

func TestRebase(t *testing.T) {
	got, err := Rebase(filepath.Join("src", "a", "b", "c.ext"), "src", filepath.Join("target", "debug"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("target", "debug", "a", "b", "c.ext"), got)
}
