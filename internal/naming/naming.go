package naming

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultContainerPrefix = "wtblob"
	DefaultFilePrefix      = "wtfile"
	// DownloadSuffix is appended to a blob name to form its local download name.
	DownloadSuffix = "_DOWNLOADED.txt"
)

var (
	// ErrInvalidContainerName indicates the name breaks the service's container naming rules.
	ErrInvalidContainerName = errors.New("invalid container name")
)

var (
	containerRe = regexp.MustCompile(`^[a-z0-9-]{3,63}$`)
)

// ContainerName returns prefix followed by a fresh UUID, e.g.
//
//	"wtblob" -> "wtblob0b4c2a0e-7f3d-4a51-9d7e-2b1f3c4d5e6f"
func ContainerName(prefix string) string {
	return strings.ToLower(prefix) + uuid.NewString()
}

// FileName returns prefix + UUID + ext ("wtfile<uuid>.txt").
func FileName(prefix, ext string) string {
	return prefix + uuid.NewString() + ext
}

// DownloadName derives the local file name a downloaded blob is written to.
// Path separators in the blob name are flattened to "_", so the result is
// always a single path element ("docs/a.txt" -> "docs_a.txt_DOWNLOADED.txt").
func DownloadName(blob string) string {
	return separators.Replace(blob) + DownloadSuffix
}

var separators = strings.NewReplacer("/", "_", `\`, "_")

// ValidateContainerName checks length, character set, and hyphen placement:
// lowercase letters, digits and single hyphens, starting and ending with a
// letter or digit.
func ValidateContainerName(name string) error {
	if !containerRe.MatchString(name) {
		return ErrInvalidContainerName
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return ErrInvalidContainerName
	}
	if strings.Contains(name, "--") {
		return ErrInvalidContainerName
	}
	return nil
}
