// Package recordstore defines the record store the sampler reads from.
//
// A record store is an ordered key->record mapping. Keys are 8-digit,
// zero-padded decimal strings derived from a dense 0-based row index:
//
//	recordstore.Key(42) // "00000042"
//
// The sampler walks a store once per epoch through a Cursor and fetches
// sampled companions through a Transaction.
//
// # Built-in Implementations
//
//   - MemoryStore: ordered in-memory store for tests and small jobs
//   - segment.Store: immutable segment files on any blobstore.BlobStore (local, S3, MinIO)
//   - dynamo.Store: one DynamoDB partition per dataset, records ordered by sort key
//   - parquet.Store: a Parquet file with key and value columns
package recordstore
