package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emzola/flibooks/data/dto"
	"github.com/emzola/flibooks/internal/metrics"
	"github.com/emzola/flibooks/internal/scoped"
	"github.com/emzola/flibooks/internal/validator"
	"github.com/klauspost/compress/zip"
)

const (
	// ArchiveContentType is the content type of bundled downloads.
	ArchiveContentType = "application/zip"
	// archiveTimeFormat stamps bundled archive names, e.g. flibooks-20240131-154501.zip.
	archiveTimeFormat = "20060102-150405"
	// maxNameBytes keeps derived names within common file system limits.
	maxNameBytes = 240
)

type archives interface {
	DownloadBook(ctx context.Context, id string) (*Download, error)
	DownloadArchive(ctx context.Context, ids []string) (*Download, error)
}

// Download is a file ready to be sent to a client. Close releases the file and
// removes every temporary path created for it.
type Download struct {
	Name        string
	ContentType string
	ModTime     time.Time
	File        *os.File
	cleanup     io.Closer
}

func (d *Download) Close() error {
	if d.cleanup == nil {
		return nil
	}
	return d.cleanup.Close()
}

// DownloadBook service extracts a single book from its container.
func (s *service) DownloadBook(ctx context.Context, id string) (*Download, error) {
	book, err := s.book(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := scoped.NewFile(s.config.Containers.TempDir, "flibooks-book-*")
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	if err := s.repo.UnpackBook(ctx, book.Container, book.FileName(), f); err != nil {
		return nil, translate(err)
	}
	contentType, err := s.detectContentType(f.File)
	if err != nil {
		return nil, err
	}

	metrics.BooksServed.WithLabelValues("single").Inc()
	ok = true
	return &Download{
		Name:        book.OutFileName(),
		ContentType: contentType,
		ModTime:     s.now(),
		File:        f.File,
		cleanup:     f,
	}, nil
}

// DownloadArchive service bundles several books into a fresh zip archive.
// Ids that cannot be resolved are logged and skipped.
func (s *service) DownloadArchive(ctx context.Context, ids []string) (*Download, error) {
	v := validator.New()
	if dto.ValidateDownloadRequest(v, dto.DownloadRequest{IDs: ids}); !v.Valid() {
		return nil, s.failedValidation(v.Errors)
	}

	dir, err := scoped.NewDir(s.config.Containers.TempDir, "flibooks-archive-*")
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			dir.Close()
		}
	}()

	booksDir := filepath.Join(dir.Path, "books")
	if err := os.Mkdir(booksDir, 0o755); err != nil {
		return nil, err
	}

	taken := make(map[string]bool)
	resolved := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := s.materialize(ctx, id, booksDir, taken)
		if err != nil {
			s.logger.PrintError(err, map[string]string{"id": id, "action": "bundle"})
			continue
		}
		s.logger.PrintDebug("book added to bundle", map[string]string{"id": id, "name": name})
		resolved++
	}
	if resolved == 0 {
		return nil, fmt.Errorf("%w: none of %d ids could be resolved", ErrRecordNotFound, len(ids))
	}

	now := s.now()
	name := "flibooks-" + now.Format(archiveTimeFormat) + ".zip"
	out, err := os.Create(filepath.Join(dir.Path, name))
	if err != nil {
		return nil, err
	}
	if err := writeZip(booksDir, out); err != nil {
		out.Close()
		return nil, err
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		out.Close()
		return nil, err
	}

	metrics.BooksServed.WithLabelValues("bundle").Add(float64(resolved))
	ok = true
	return &Download{
		Name:        name,
		ContentType: ArchiveContentType,
		ModTime:     now,
		File:        out,
		cleanup:     closers{out, dir},
	}, nil
}

// materialize writes the book with the given id into dir under its derived
// name and returns that name.
func (s *service) materialize(ctx context.Context, id, dir string, taken map[string]bool) (string, error) {
	book, err := s.book(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}
	name := uniqueName(safeName(book.OutFileName()), taken)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	err = s.repo.UnpackBook(ctx, book.Container, book.FileName(), f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("unpack %s: %w", id, translate(err))
	}
	taken[name] = true
	return name, nil
}

// writeZip stores every file below root in a new archive written to w, in
// directory walk order. Files are deflated with mode 0644; subdirectories get
// explicit entries with mode 0755.
func writeZip(root string, w io.Writer) error {
	zw := zip.NewWriter(w)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		if d.IsDir() {
			hdr := &zip.FileHeader{Name: name + "/", Method: zip.Store}
			hdr.SetMode(fs.ModeDir | 0o755)
			_, err := zw.CreateHeader(hdr)
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate
		hdr.SetMode(0o644)
		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		return err
	}
	return zw.Close()
}

// safeName makes a derived name usable as a single path element.
func safeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	if len(name) <= maxNameBytes {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for len(base)+len(ext) > maxNameBytes {
		_, size := utf8.DecodeLastRuneInString(base)
		base = base[:len(base)-size]
	}
	return base + ext
}

// uniqueName appends " (2)", " (3)"... before the extension until name is not taken.
func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := base + " (" + strconv.Itoa(i) + ")" + ext
		if !taken[candidate] {
			return candidate
		}
	}
}

// closers closes every element in order and joins the errors.
type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		if err := cl.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
