package storage

import "context"

// ObjectInfo represents metadata for a remote object.
type ObjectInfo struct {
	Key  string
	Name string
	Size int64
}

// ObjectStorage captures the S3-compatible operations artifact sync needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// Bucket lists and fetches the objects under one prefix.
type Bucket struct {
	store  ObjectStorage
	prefix string
}

func NewBucket(store ObjectStorage, prefix string) *Bucket {
	return &Bucket{store: store, prefix: prefix}
}

func (b *Bucket) List(ctx context.Context) ([]ObjectInfo, error) {
	return b.store.ListObjects(ctx, b.prefix)
}

func (b *Bucket) Fetch(ctx context.Context, obj ObjectInfo, destPath string) error {
	return b.store.DownloadObject(ctx, obj.Key, destPath)
}
