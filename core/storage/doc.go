// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the small Client interface the
// objectstore backend uses. Both AWS S3 and self-hosted MinIO work.
//
// # Client Interface
//
// The Client interface makes it easy to mock storage interactions in unit
// tests (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - StatObject: Reads an object's ETag for optimistic concurrency.
//   - GetObject: Retrieves content as a stream.
//   - PutObject: Uploads a whole object.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "datasets")
package storage
