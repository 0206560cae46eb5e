// Package recording defines the normalized, loader-agnostic data model
// for a single fNIRS recording.
//
// A Recording is produced once by whichever loader strategy built it and
// is treated as immutable afterwards: loaders copy every value out of
// the container file and release all handles before returning, so no
// field aliases file-backed memory.
//
// The model mirrors the SNIRF layout without depending on it: metadata
// tags, probe geometry, one Channel per column of the intensity matrix,
// a shared time axis, and optional stimulus and auxiliary streams with
// their own sampling grids.
package recording
