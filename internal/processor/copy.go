package processor

import (
	"io"
	"os"

	"github.com/Norgate-AV/pdmake/internal/codes"
)

// Copy writes the source bytes unchanged, keeping name and permissions
type Copy struct{}

func (Copy) OutputPath(dest string) string {
	return dest
}

func (Copy) Process(src, dest string) error {
	if err := copyFile(src, dest); err != nil {
		return codes.IO(err, "copy", src)
	}

	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}

	if err := dstFile.Close(); err != nil {
		return err
	}

	// Preserve file permissions
	return os.Chmod(dst, srcInfo.Mode())
}
