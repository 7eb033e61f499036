package metaprogram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_PlainTextEmitsEachLine(t *testing.T) {
	p, err := Compile("main.plua", "local a = 1\nprint(a)\n")
	require.NoError(t, err)

	assert.Contains(t, p.Source, `emit("local a = 1\n")`)
	assert.Contains(t, p.Source, `emit("print(a)\n")`)
}

func TestCompile_NoTrailingNewline(t *testing.T) {
	p, err := Compile("main.plua", "return x")
	require.NoError(t, err)

	assert.Contains(t, p.Source, `emit("return x")`)
}

func TestCompile_Interpolation(t *testing.T) {
	p, err := Compile("main.plua", "local v = \"${version}\"\n")
	require.NoError(t, err)

	assert.Contains(t, p.Source, `emit("local v = \"", _text(version), "\"\n")`)
}

func TestCompile_InterpolationWithBraces(t *testing.T) {
	p, err := Compile("main.plua", "x = ${ {'a': 1}['a'] }\n")
	require.NoError(t, err)

	assert.Contains(t, p.Source, `_text({'a': 1}['a'])`)
}

func TestCompile_Blocks(t *testing.T) {
	src := strings.Join([]string{
		"--! if DEBUG:",
		"print('debug')",
		"--! else:",
		"print('release')",
		"--! end",
		"",
	}, "\n")

	p, err := Compile("main.plua", src)
	require.NoError(t, err)

	assert.Contains(t, p.Source, "    if DEBUG:\n")
	assert.Contains(t, p.Source, "        emit(\"print('debug')\\n\")\n")
	assert.Contains(t, p.Source, "    else:\n")
	assert.Contains(t, p.Source, "        emit(\"print('release')\\n\")\n")
}

func TestCompile_EmptyBlockIsValid(t *testing.T) {
	_, err := Compile("main.plua", "--! if DEBUG:\n--! end\n")
	assert.NoError(t, err)
}

func TestCompile_SourceLineMapping(t *testing.T) {
	p, err := Compile("main.plua", "a\n--! x = 1\nb\n")
	require.NoError(t, err)

	lines := strings.Split(p.Source, "\n")
	for i, l := range lines {
		if strings.Contains(l, "x = 1") {
			assert.Equal(t, 2, p.SourceLine(i+1))
		}
	}
	assert.Equal(t, 0, p.SourceLine(0))
	assert.Equal(t, 0, p.SourceLine(1000))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{
			name: "unclosed block",
			src:  "--! for i in range(3):\nx\n",
			line: 1,
			msg:  "never closed",
		},
		{
			name: "stray end",
			src:  "x\n--! end\n",
			line: 2,
			msg:  "unexpected end",
		},
		{
			name: "else without block",
			src:  "--! else:\n",
			line: 1,
			msg:  "without an open block",
		},
		{
			name: "unterminated interpolation",
			src:  "a\nb = ${value\n",
			line: 2,
			msg:  "unterminated",
		},
		{
			name: "empty interpolation",
			src:  "b = ${ }\n",
			line: 1,
			msg:  "empty interpolation",
		},
		{
			name: "invalid directive",
			src:  "a\n--! x = = 1\n",
			line: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile("bad.plua", tt.src)
			require.Error(t, err)
			require.NotNil(t, p, "partial program should be returned")

			var cerr *CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.line, cerr.Line)
			assert.Equal(t, "bad.plua", cerr.Name)
			if tt.msg != "" {
				assert.Contains(t, cerr.Msg, tt.msg)
			}
		})
	}
}

func TestCompile_InterpolationWithQuotedBraces(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "x = ${'}'}\n", want: `_text('}')`},
		{src: "x = ${\"{\" + '}'}\n", want: `_text("{" + '}')`},
		{src: "x = ${'\\'}'}\n", want: `_text('\'}')`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := Compile("main.plua", tt.src)
			require.NoError(t, err)
			assert.Contains(t, p.Source, tt.want)
		})
	}
}

func TestCompile_UnterminatedStringInInterpolation(t *testing.T) {
	_, err := Compile("main.plua", "x = ${'abc}\n")
	require.Error(t, err)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Line)
	assert.Contains(t, cerr.Msg, "unterminated string")
}
