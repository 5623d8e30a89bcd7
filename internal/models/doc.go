// Package models defines the domain entities for the Yocrify library sync service.
//
// The types fall into two groups:
//
// 1. Normalized remote data, produced at the single ingestion boundary:
//   - [Track] : canonical track record with defensive-defaulted fields
//   - [PlaylistRef] : cross-playlist occurrence reference
//
// 2. Optimized persisted records, produced by the sync engine:
//   - [Playlist] : one playlist with pre-computed aggregates (duration, artist
//     set, year range) and a display-sorted track list
//   - [Snapshot] : the complete library state for one user, replaced wholesale
//     on every successful sync
//
// Nothing downstream of ingestion touches raw API response shapes; those live
// in the services package.
package models
