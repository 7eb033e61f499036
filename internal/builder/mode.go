package builder

// Mode selects the output subdirectory and the metaprogram DEBUG flag
type Mode int

const (
	Debug Mode = iota
	Release
)

func (m Mode) String() string {
	if m == Release {
		return "release"
	}

	return "debug"
}

// ModeFor returns Debug when debug is set, otherwise Release
func ModeFor(debug bool) Mode {
	if debug {
		return Debug
	}

	return Release
}

// IsDebug reports whether the mode enables debug-only output
func (m Mode) IsDebug() bool {
	return m == Debug
}
