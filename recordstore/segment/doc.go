// Package segment implements the packed record store: an immutable blob
// holding one optionally compressed record per row plus an offsets table
// for O(1) random access.
//
// Segments are written once with a Writer and read through any
// blobstore.BlobStore, so the same file works from local disk (mmap),
// S3 or MinIO.
//
//	w, _ := segment.NewWriter(blob, segment.WithCompression(segment.CompressionZSTD))
//	for _, rec := range records {
//	    w.Append(rec)
//	}
//	w.Close()
//
//	b, _ := store.Open(ctx, "train.seg")
//	s, _ := segment.Open(ctx, b, segment.WithName("train.seg"))
package segment
