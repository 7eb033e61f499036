package utils

import (
	"path/filepath"
	"strings"
)

// NormalizeKey converts a path into a portable, forward-slash key
func NormalizeKey(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(filepath.Clean(path)), `\`, "/")
}

// Ext returns the lowercase extension of path without the leading dot
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ReplaceExt swaps the final extension of path for ext (given without a dot)
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

// Rebase maps path from under root to the same relative location under target
func Rebase(path, root, target string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}

	return filepath.Join(target, rel), nil
}
