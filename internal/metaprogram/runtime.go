package metaprogram

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"

	"github.com/Norgate-AV/pdmake/internal/logging"
)

const outputKey = "pdmake.output"

// Runtime executes compiled metaprograms. Its globals are frozen, so a single
// Runtime may execute programs from several goroutines at once.
type Runtime struct {
	predeclared starlark.StringDict
}

// NewRuntime creates a runtime exposing DEBUG and a read-only ENV dict
func NewRuntime(debug bool, env map[string]string) *Runtime {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	envDict := starlark.NewDict(len(keys))
	for _, k := range keys {
		// SetKey on a fresh dict of strings cannot fail
		_ = envDict.SetKey(starlark.String(k), starlark.String(env[k]))
	}

	predeclared := starlark.StringDict{
		"DEBUG": starlark.Bool(debug),
		"ENV":   envDict,
		"emit":  starlark.NewBuiltin("emit", emit),
		"_text": starlark.NewBuiltin("_text", text),
	}
	predeclared.Freeze()

	return &Runtime{predeclared: predeclared}
}

// Execute runs p and returns the text it emitted
func (r *Runtime) Execute(ctx context.Context, p *Program) (string, error) {
	log := logging.From(ctx)

	var out strings.Builder
	thread := &starlark.Thread{
		Name: p.Name,
		Print: func(_ *starlark.Thread, msg string) {
			log.Info().Str("file", p.Name).Msg(msg)
		},
	}
	thread.SetLocal(outputKey, &out)

	globals, err := starlark.ExecFile(thread, p.GeneratedName(), p.Source, r.predeclared)
	if err != nil {
		return "", r.wrap(p, err)
	}

	fn, ok := globals[entryPoint]
	if !ok {
		return "", eris.Errorf("%s: generated program has no %s function", p.Name, entryPoint)
	}

	if _, err := starlark.Call(thread, fn, nil, nil); err != nil {
		return "", r.wrap(p, err)
	}

	return out.String(), nil
}

// Expand compiles and executes text in one step
func (r *Runtime) Expand(ctx context.Context, name, text string) (string, *Program, error) {
	p, err := Compile(name, text)
	if err != nil {
		return "", p, err
	}

	out, err := r.Execute(ctx, p)
	return out, p, err
}

func (r *Runtime) wrap(p *Program, err error) error {
	evalErr, ok := err.(*starlark.EvalError)
	if !ok {
		return eris.Wrapf(err, "failed to execute %s", p.Name)
	}

	for i := 0; i < len(evalErr.CallStack); i++ {
		frame := evalErr.CallStack.At(i)
		if frame.Pos.Filename() != p.GeneratedName() {
			continue
		}

		if line := p.SourceLine(int(frame.Pos.Line)); line > 0 {
			return eris.Errorf("failed to execute %s at line %d: %s\n%s", p.Name, line, evalErr.Msg, evalErr.Backtrace())
		}
	}

	return eris.Errorf("failed to execute %s:\n%s", p.Name, evalErr.Backtrace())
}

func emit(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, eris.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	out, ok := thread.Local(outputKey).(*strings.Builder)
	if !ok {
		return nil, eris.Errorf("%s: called outside of a metaprogram", fn.Name())
	}

	for _, arg := range args {
		out.WriteString(toText(arg))
	}

	return starlark.None, nil
}

func text(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}

	return starlark.String(toText(v)), nil
}

// toText renders a value as it should appear in Lua output
func toText(v starlark.Value) string {
	switch v := v.(type) {
	case starlark.String:
		return string(v)
	case starlark.Bool:
		if v {
			return "true"
		}
		return "false"
	case starlark.NoneType:
		return "nil"
	default:
		return v.String()
	}
}
