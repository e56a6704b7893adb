package fileInfo

import (
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// LocalFile describes a regular file on the local filesystem: the upload
// side needs its exact size before the first packet is built (it becomes
// the tsize option), the download side uses DetectType for the completion
// summary.
type LocalFile struct {
	Name     string
	Path     string
	Size     int64
	MimeType string
}

// Stat checks that path names an existing regular file and returns its
// metadata.
func Stat(path string) (LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return LocalFile{}, err
	}
	if info.IsDir() {
		return LocalFile{}, fmt.Errorf("%s is a directory", path)
	}
	return LocalFile{
		Name:     info.Name(),
		Path:     path,
		Size:     info.Size(),
		MimeType: DetectType(path),
	}, nil
}

// DetectType sniffs the content type of a file, falling back to the generic
// octet-stream type when detection fails.
func DetectType(path string) string {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mime.String()
}
