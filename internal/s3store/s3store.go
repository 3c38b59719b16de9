// Package s3store publishes finished build artifacts (the search index
// tarball, the KV store file, the FST file) to an S3-compatible bucket,
// gated behind wikitools-build's optional -publish flag. Adapted from
// the teacher's cmd/qrank-builder/s3.go, trimmed to the upload-only path
// this module needs — see DESIGN.md.
package s3store

import (
	"context"

	"github.com/minio/minio-go/v7"

	"github.com/kthwaite/wikitools/internal/wikierr"
)

// S3 is the subset of minio.Client this package uses. Defining our own
// interface keeps tests able to fake it without a live bucket.
type S3 interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Artifact is one local file to publish under a destination object name.
type Artifact struct {
	LocalPath   string
	ObjectName  string
	ContentType string
}

// PutInStorage stores a single file in S3 storage under dest.
func PutInStorage(ctx context.Context, file string, s3 S3, bucket, dest, contentType string) error {
	_, err := s3.FPutObject(ctx, bucket, dest, file, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return wikierr.Wrap(wikierr.KindIO, err)
	}
	return nil
}

// PublishArtifacts uploads every artifact to bucket, stopping at the
// first failure — the build is otherwise already complete on local
// disk, so a publish failure is reported but does not unwind the build.
func PublishArtifacts(ctx context.Context, s3 S3, bucket string, artifacts []Artifact) error {
	for _, a := range artifacts {
		if err := PutInStorage(ctx, a.LocalPath, s3, bucket, a.ObjectName, a.ContentType); err != nil {
			return err
		}
	}
	return nil
}

// ListPublished returns the object names already present under prefix
// in bucket.
func ListPublished(ctx context.Context, s3 S3, bucket, prefix string) ([]string, error) {
	var names []string
	opts := minio.ListObjectsOptions{Prefix: prefix}
	for obj := range s3.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, wikierr.Wrap(wikierr.KindIO, obj.Err)
		}
		names = append(names, obj.Key)
	}
	return names, nil
}
