package s3store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
)

// fakeS3 is a minimal in-memory stand-in for the S3 interface, in the
// teacher's own style of faking just enough of the minio client surface
// to exercise the publish/list logic without a live bucket.
type fakeS3 struct {
	uploaded map[string]string // objectName -> localPath
	objects  []string
	failPut  bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{uploaded: make(map[string]string)}
}

func (f *fakeS3) FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.failPut {
		return minio.UploadInfo{}, errors.New("put failed")
	}
	f.uploaded[objectName] = filePath
	return minio.UploadInfo{Key: objectName}, nil
}

func (f *fakeS3) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(f.objects))
	for _, name := range f.objects {
		ch <- minio.ObjectInfo{Key: name}
	}
	close(ch)
	return ch
}

func TestPublishArtifacts(t *testing.T) {
	dir := t.TempDir()
	fstPath := filepath.Join(dir, "anchor_counts.fst")
	if err := os.WriteFile(fstPath, []byte("fst-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := newFakeS3()
	artifacts := []Artifact{
		{LocalPath: fstPath, ObjectName: "anchor_counts.fst", ContentType: "application/octet-stream"},
	}
	if err := PublishArtifacts(context.Background(), fake, "bucket", artifacts); err != nil {
		t.Fatalf("PublishArtifacts: %v", err)
	}
	if fake.uploaded["anchor_counts.fst"] != fstPath {
		t.Errorf("uploaded[%q] = %q, want %q", "anchor_counts.fst", fake.uploaded["anchor_counts.fst"], fstPath)
	}
}

func TestPublishArtifactsStopsOnFirstFailure(t *testing.T) {
	fake := newFakeS3()
	fake.failPut = true
	artifacts := []Artifact{
		{LocalPath: "x", ObjectName: "x.bin"},
	}
	if err := PublishArtifacts(context.Background(), fake, "bucket", artifacts); err == nil {
		t.Fatal("expected an error from a failing FPutObject")
	}
}

func TestListPublished(t *testing.T) {
	fake := newFakeS3()
	fake.objects = []string{"anchor_counts.fst", "anchor_counts.bolt"}

	names, err := ListPublished(context.Background(), fake, "bucket", "")
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2: %v", len(names), names)
	}
}

func TestTarGzDir(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "out.tar.gz")
	if err := TarGzDir(src, dest); err != nil {
		t.Fatalf("TarGzDir: %v", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected a non-empty archive")
	}
}
