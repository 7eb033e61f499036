package toolchain

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeToolchain(goos, sdk, home string, files map[string]bool, path map[string]string) *Toolchain {
	return &Toolchain{
		overrides:  map[string]string{},
		strategies: ForPlatform(goos, sdk, home),
		exists: func(p string) bool {
			return files[p]
		},
		lookPath: func(file string) (string, error) {
			if p, ok := path[file]; ok {
				return p, nil
			}
			return "", errors.New("not found")
		},
	}
}

func TestResolve_Override(t *testing.T) {
	tc := fakeToolchain("linux", "", "", nil, nil)
	tc.overrides[Aseprite] = "/custom/aseprite"

	got, err := tc.Resolve(Aseprite)
	require.NoError(t, err)
	assert.Equal(t, "/custom/aseprite", got)
}

func TestResolve_Platforms(t *testing.T) {
	sdk := filepath.Join("/sdk")
	home := filepath.Join("/home", "user")

	tests := []struct {
		name  string
		goos  string
		tool  string
		files map[string]bool
		path  map[string]string
		want  string
	}{
		{
			name:  "linux pdc from sdk",
			goos:  "linux",
			tool:  Pdc,
			files: map[string]bool{filepath.Join(sdk, "bin", "pdc"): true},
			want:  filepath.Join(sdk, "bin", "pdc"),
		},
		{
			name: "linux pdc from PATH when sdk missing",
			goos: "linux",
			tool: Pdc,
			path: map[string]string{"pdc": "/usr/local/bin/pdc"},
			want: "/usr/local/bin/pdc",
		},
		{
			name:  "linux simulator from sdk",
			goos:  "linux",
			tool:  Simulator,
			files: map[string]bool{filepath.Join(sdk, "bin", "PlaydateSimulator"): true},
			want:  filepath.Join(sdk, "bin", "PlaydateSimulator"),
		},
		{
			name:  "darwin aseprite app bundle",
			goos:  "darwin",
			tool:  Aseprite,
			files: map[string]bool{filepath.Join("/Applications", "Aseprite.app", "Contents", "MacOS", "aseprite"): true},
			want:  filepath.Join("/Applications", "Aseprite.app", "Contents", "MacOS", "aseprite"),
		},
		{
			name: "darwin aseprite from steam",
			goos: "darwin",
			tool: Aseprite,
			files: map[string]bool{
				filepath.Join(home, "Library", "Application Support", "Steam", "steamapps", "common", "Aseprite", "Aseprite.app", "Contents", "MacOS", "aseprite"): true,
			},
			want: filepath.Join(home, "Library", "Application Support", "Steam", "steamapps", "common", "Aseprite", "Aseprite.app", "Contents", "MacOS", "aseprite"),
		},
		{
			name:  "darwin simulator app inside sdk",
			goos:  "darwin",
			tool:  Simulator,
			files: map[string]bool{filepath.Join(sdk, "bin", "Playdate Simulator.app", "Contents", "MacOS", "Playdate Simulator"): true},
			want:  filepath.Join(sdk, "bin", "Playdate Simulator.app", "Contents", "MacOS", "Playdate Simulator"),
		},
		{
			name:  "windows pdc from sdk",
			goos:  "windows",
			tool:  Pdc,
			files: map[string]bool{filepath.Join(sdk, "bin", "pdc.exe"): true},
			want:  filepath.Join(sdk, "bin", "pdc.exe"),
		},
		{
			name: "windows stylua from PATH",
			goos: "windows",
			tool: StyLua,
			path: map[string]string{"stylua.exe": `C:\tools\stylua.exe`},
			want: `C:\tools\stylua.exe`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := fakeToolchain(tt.goos, sdk, home, tt.files, tt.path)

			got, err := tc.Resolve(tt.tool)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	tc := fakeToolchain("linux", "/sdk", "/home/user", nil, nil)

	_, err := tc.Resolve(Pdc)
	require.Error(t, err)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, Pdc, notFound.Tool)
	assert.Contains(t, notFound.Searched, "pdc")
	assert.Contains(t, err.Error(), "could not find pdc")
}

func TestDefaultSDKRoot(t *testing.T) {
	t.Setenv("PLAYDATE_SDK_PATH", "")
	assert.Equal(t, filepath.Join("/Users/me", "Developer", "PlaydateSDK"), DefaultSDKRoot("darwin", "/Users/me"))
	assert.Equal(t, filepath.Join("/Users/me", "Documents", "PlaydateSDK"), DefaultSDKRoot("windows", "/Users/me"))
	assert.Equal(t, "", DefaultSDKRoot("linux", "/home/me"))

	t.Setenv("PLAYDATE_SDK_PATH", "/opt/playdate")
	assert.Equal(t, "/opt/playdate", DefaultSDKRoot("linux", "/home/me"))
}
