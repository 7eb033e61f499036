package cache

import (
	"hash/crc32"
	"io"
	"os"
	"sort"
)

// Fingerprint computes the CRC-32 (IEEE) checksum of a file's raw bytes.
// It detects changes, nothing more.
func Fingerprint(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}

	return h.Sum32(), nil
}

// FingerprintSettings computes the checksum of a settings map, independent of
// iteration order
func FingerprintSettings(settings map[string]string) uint32 {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := crc32.NewIEEE()
	for _, k := range keys {
		// NUL cannot appear in TOML keys or values, so entries stay unambiguous
		io.WriteString(h, k)
		h.Write([]byte{0})
		io.WriteString(h, settings[k])
		h.Write([]byte{0})
	}

	return h.Sum32()
}
