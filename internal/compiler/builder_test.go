package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/runner"
)

// mockExecutor records invocations instead of running pdc
type mockExecutor struct {
	runFunc func(name string, args []string) (*runner.Result, error)
	name    string
	args    []string
	called  bool
}

func (m *mockExecutor) Run(name string, args []string, stdin []byte) (*runner.Result, error) {
	m.called = true
	m.name = name
	m.args = args

	if m.runFunc != nil {
		return m.runFunc(name, args)
	}

	return &runner.Result{}, nil
}

func TestCommandBuilder_BuildCommandArgs(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantArgs []string
	}{
		{
			name:     "default",
			wantArgs: []string{"-q", "target/debug", "target/com.example.game.pdx"},
		},
		{
			name:     "strip",
			opts:     Options{Strip: true},
			wantArgs: []string{"-q", "-s", "target/debug", "target/com.example.game.pdx"},
		},
		{
			name:     "strip and skip unknown",
			opts:     Options{Strip: true, SkipUnknown: true},
			wantArgs: []string{"-q", "-s", "-k", "target/debug", "target/com.example.game.pdx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCommandBuilder(&mockExecutor{})
			got := cb.BuildCommandArgs("target/debug", "target/com.example.game.pdx", tt.opts)
			assert.Equal(t, tt.wantArgs, got)
		})
	}
}

func TestGetBuildCommand(t *testing.T) {
	cmd := GetBuildCommand("/sdk/bin/pdc", "target/release", "target/game.pdx", Options{})

	assert.Equal(t, "/sdk/bin/pdc", cmd.Path)
	assert.Equal(t, []string{"-q", "target/release", "target/game.pdx"}, cmd.Args)
	assert.Equal(t, "/sdk/bin/pdc -q target/release target/game.pdx", cmd.String())
}

func TestCommandBuilder_Package(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "debug")
	bundle := filepath.Join(dir, "game.pdx")
	require.NoError(t, os.MkdirAll(tree, 0o755))

	exec := &mockExecutor{}
	cb := NewCommandBuilder(exec)

	require.NoError(t, cb.Package("pdc", tree, bundle, Options{}))
	assert.True(t, exec.called)
	assert.Equal(t, "pdc", exec.name)
	assert.Equal(t, []string{"-q", tree, bundle}, exec.args)
}

func TestCommandBuilder_PackageFailure(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "debug")
	require.NoError(t, os.MkdirAll(tree, 0o755))

	exec := &mockExecutor{
		runFunc: func(name string, args []string) (*runner.Result, error) {
			result := &runner.Result{Stderr: []byte("error: main.lua:3: unexpected symbol")}
			return result, &runner.ExitError{Name: name, Code: 1, Result: result}
		},
	}

	err := NewCommandBuilder(exec).Package("pdc", tree, filepath.Join(dir, "game.pdx"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, codes.ErrPackaging)
	assert.Equal(t, codes.KindPackaging, codes.KindOf(err))

	var cerr *codes.Error
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Output, "unexpected symbol")
}

func TestCommandBuilder_PackageMissingTree(t *testing.T) {
	exec := &mockExecutor{}

	err := NewCommandBuilder(exec).Package("pdc", filepath.Join(t.TempDir(), "missing"), "out.pdx", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, codes.ErrIO)
	assert.False(t, exec.called)
}
