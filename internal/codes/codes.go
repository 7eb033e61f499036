package codes

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a build failure
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindIO
	KindProcessor
	KindPackaging
)

// ExitCodes maps failure kinds to process exit codes
var ExitCodes = map[Kind]int{
	KindUnknown:   1,
	KindConfig:    2,
	KindIO:        3,
	KindProcessor: 4,
	KindPackaging: 5,
}

var kindNames = map[Kind]string{
	KindUnknown:   "error",
	KindConfig:    "config error",
	KindIO:        "io error",
	KindProcessor: "processor error",
	KindPackaging: "packaging error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

// Error is a classified build error carrying the stage and file it happened at
type Error struct {
	Kind  Kind
	Stage string
	Path  string

	// Output is the captured diagnostic text of an external tool, if any
	Output string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())

	if e.Stage != "" {
		b.WriteString(" during ")
		b.WriteString(e.Stage)
	}

	if e.Path != "" {
		b.WriteString(" (")
		b.WriteString(e.Path)
		b.WriteString(")")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString("\n")
		b.WriteString(out)
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, codes.ErrProcessor) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Stage == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrConfig    = &Error{Kind: KindConfig}
	ErrIO        = &Error{Kind: KindIO}
	ErrProcessor = &Error{Kind: KindProcessor}
	ErrPackaging = &Error{Kind: KindPackaging}
)

// Config wraps err as a configuration failure
func Config(err error, format string, a ...any) error {
	return &Error{Kind: KindConfig, Err: wrap(err, format, a...)}
}

// IO wraps err as a filesystem failure at the given stage and path
func IO(err error, stage, path string) error {
	return &Error{Kind: KindIO, Stage: stage, Path: path, Err: err}
}

// Processor wraps err as a processor failure for path
func Processor(err error, path, output string) error {
	return &Error{Kind: KindProcessor, Stage: "process", Path: path, Output: output, Err: err}
}

// Packaging wraps err as a failure of the packaging compiler
func Packaging(err error, output string) error {
	return &Error{Kind: KindPackaging, Stage: "package", Output: output, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// ExitCode returns the process exit code for err
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	return ExitCodes[KindOf(err)]
}

func wrap(err error, format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	if err == nil {
		return errors.New(msg)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
