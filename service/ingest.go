package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emzola/flibooks/data"
	"github.com/emzola/flibooks/internal/inpx"
	"github.com/emzola/flibooks/internal/metrics"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

// maxLineSize bounds a single index record.
const maxLineSize = 1 << 20

type ingest interface {
	Ingest(ctx context.Context, path string, progress Progress) (*IngestReport, error)
}

// Progress receives the number of index bytes consumed. *progressbar.ProgressBar
// satisfies it.
type Progress interface {
	ChangeMax64(max int64)
	Describe(description string)
	Add64(n int64) error
}

// IngestReport summarizes an ingestion run.
type IngestReport struct {
	Files           int
	FailedFiles     int
	Documents       int
	FailedDocuments int
}

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

type bulkMeta struct {
	Index string `json:"_index"`
	Type  string `json:"_type,omitempty"`
	ID    string `json:"_id"`
}

// errBadIndexFile marks failures that abort a single index file but not the run.
var errBadIndexFile = errors.New("bad index file")

// Ingest service loads every index file inside the archive at path into the
// search backend. Each record gets a fresh id, so running it twice over the
// same archive duplicates the catalog. Archive and backend failures abort the
// run; a malformed index file is logged and skipped.
func (s *service) Ingest(ctx context.Context, path string, progress Progress) (*IngestReport, error) {
	if progress == nil {
		progress = noProgress{}
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()

	var files []*zip.File
	var total int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !inpx.IsIndex(f.Name) {
			continue
		}
		files = append(files, f)
		total += int64(f.UncompressedSize64)
	}
	progress.ChangeMax64(total)
	s.logger.PrintInfo("ingestion started", map[string]string{
		"archive":     path,
		"index_files": strconv.Itoa(len(files)),
		"index":       s.repo.Index(),
	})

	report := &IngestReport{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		progress.Describe(f.Name)
		err := s.ingestFile(ctx, f, progress, report)
		switch {
		case errors.Is(err, errBadIndexFile):
			report.FailedFiles++
			metrics.IngestedFiles.WithLabelValues("failed").Inc()
			s.logger.PrintError(err, map[string]string{"file": f.Name})
		case err != nil:
			return report, fmt.Errorf("ingest %s: %w", f.Name, err)
		default:
			report.Files++
			metrics.IngestedFiles.WithLabelValues("ok").Inc()
		}
	}

	s.logger.PrintInfo("ingestion finished", map[string]string{
		"files":            strconv.Itoa(report.Files),
		"failed_files":     strconv.Itoa(report.FailedFiles),
		"documents":        strconv.Itoa(report.Documents),
		"failed_documents": strconv.Itoa(report.FailedDocuments),
	})
	return report, nil
}

// ingestFile parses one index file completely before anything is sent, so a
// malformed record leaves no partial file behind in the backend.
func (s *service) ingestFile(ctx context.Context, f *zip.File, progress Progress, report *IngestReport) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	container := inpx.ContainerName(f.Name)
	batchSize := s.config.Ingest.BatchSize

	var chunks []*bytes.Buffer
	var chunk *bytes.Buffer
	inChunk := 0

	sc := bufio.NewScanner(&progressReader{r: rc, progress: progress})
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		book, err := inpx.ParseRecord(line)
		if err != nil {
			return fmt.Errorf("%w: %s line %d: %v", errBadIndexFile, f.Name, lineNo, err)
		}
		book.Container = container

		if chunk == nil || inChunk == batchSize {
			chunk = &bytes.Buffer{}
			chunks = append(chunks, chunk)
			inChunk = 0
		}
		if err := s.writeBulkItem(chunk, uuid.NewString(), book); err != nil {
			return err
		}
		inChunk++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.sendBulk(ctx, f.Name, c, report); err != nil {
			return err
		}
	}
	return nil
}

// writeBulkItem appends the two line framing of one index operation.
func (s *service) writeBulkItem(buf *bytes.Buffer, id string, book *data.Book) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	action := bulkAction{Index: bulkMeta{Index: s.repo.Index(), Type: s.repo.DocType(), ID: id}}
	if err := enc.Encode(action); err != nil {
		return err
	}
	return enc.Encode(book)
}

func (s *service) sendBulk(ctx context.Context, file string, body io.Reader, report *IngestReport) error {
	res, err := s.repo.Bulk(ctx, body)
	if err != nil {
		return err
	}
	for _, failed := range res.Failed {
		s.logger.PrintError(errors.New(failed.Reason), map[string]string{
			"file":   file,
			"id":     failed.ID,
			"status": strconv.Itoa(failed.Status),
			"type":   failed.Type,
		})
	}
	ok := res.Items - len(res.Failed)
	report.Documents += ok
	report.FailedDocuments += len(res.Failed)
	metrics.IngestedDocuments.WithLabelValues("ok").Add(float64(ok))
	metrics.IngestedDocuments.WithLabelValues("failed").Add(float64(len(res.Failed)))
	s.logger.PrintDebug("bulk request done", map[string]string{
		"file":   file,
		"items":  strconv.Itoa(res.Items),
		"failed": strconv.Itoa(len(res.Failed)),
	})
	return nil
}

type progressReader struct {
	r        io.Reader
	progress Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.progress.Add64(int64(n))
	}
	return n, err
}

type noProgress struct{}

func (noProgress) ChangeMax64(int64) {}
func (noProgress) Describe(string)   {}
func (noProgress) Add64(int64) error { return nil }
