// Package library implements the pure computation core of a sync run:
// normalization of raw track items, the cross-playlist duplicate index, and
// per-playlist optimization.
//
// A sync run is two passes over the library. Pass one normalizes each
// playlist's tracks, records every (track, playlist) occurrence into the
// [DuplicateIndex], and builds the playlist's optimized record. Pass two
// ([ApplyIndex]) rewrites every track's other_playlists list from the
// completed index, so the final snapshot is identical regardless of playlist
// processing order.
//
// Nothing in this package performs I/O; everything is synchronous and
// independently testable.
package library
