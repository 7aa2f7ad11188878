// Package cache provides a byte-bounded LRU for immutable blob blocks and
// decoded records.
//
// Two key spaces share one cache:
//
//   - KindBlock: fixed-size blocks of a blob, filled by blobstore.CachingStore
//   - KindRecord: decompressed records of a segment, filled on companion reads
//
// Memory is optionally reserved through a resource.Controller so that all
// caches of a process respect one limit.
package cache
