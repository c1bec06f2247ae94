// Package flat provides an exact inner-product vector index and the
// on-disk store for its artifacts.
//
// The index scans every vector on each search. With L2-normalised vectors
// the inner product equals cosine similarity.
//
// The store persists two files that always travel together:
//
//	index.bin    binary header + float32 matrix, little-endian
//	chunks.json  the parallel chunk sequence
//
// Both carry the same generation UUID. Each is written to a temporary
// file and renamed into place, chunks first and the index last, so a
// reader that sees a new index.bin also sees its chunks.
package flat
