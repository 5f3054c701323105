package materializer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is wrapped by the FileError of a filename that would resolve
// outside the output root.
var ErrUnsafePath = errors.New("path escapes output root")

// localPath converts an untrusted plan filename into a cleaned path relative
// to the output root. Absolute paths, volume names and any ".." segment are
// rejected, even when the segment would cancel out after cleaning.
func localPath(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: contains NUL byte", ErrUnsafePath)
	}
	native := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if filepath.IsAbs(native) || filepath.VolumeName(native) != "" || strings.HasPrefix(native, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: absolute path", ErrUnsafePath)
	}
	for _, seg := range strings.Split(filepath.ToSlash(native), "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: parent directory segment", ErrUnsafePath)
		}
	}
	if !filepath.IsLocal(native) {
		return "", fmt.Errorf("%w: not a local path", ErrUnsafePath)
	}
	return filepath.Clean(native), nil
}
