package service

import (
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// detectContentType sniffs the content type of an extracted book and rewinds
// the file so it can be served from the start.
func (s *service) detectContentType(f *os.File) (string, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mtype.String(), nil
}
