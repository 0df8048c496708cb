package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/emzola/flibooks/internal/scoped"
	"github.com/klauspost/compress/zip"
)

// S3Store reads containers from a bucket. Each container is downloaded into a
// scoped temporary file because zip needs random access.
type S3Store struct {
	downloader *manager.Downloader
	bucket     string
	prefix     string
	tempDir    string
}

func NewS3Store(client *s3.Client, bucket, prefix, tempDir string) *S3Store {
	return &S3Store{
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		prefix:     prefix,
		tempDir:    tempDir,
	}
}

// Key returns the object key of a container.
func (s *S3Store) Key(name string) string {
	return path.Join(s.prefix, CleanName(name))
}

func (s *S3Store) Open(ctx context.Context, name string) (*Container, error) {
	if CleanName(name) == "" {
		return nil, ErrRecordNotFound
	}
	f, err := scoped.NewFile(s.tempDir, "container-*.zip")
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	n, err := s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("container %s: %w", name, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("download container %s: %w", name, err)
	}

	zr, err := zip.NewReader(f, n)
	if err != nil {
		return nil, fmt.Errorf("container %s: %w", name, err)
	}
	ok = true
	return &Container{Reader: zr, closer: f}, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
