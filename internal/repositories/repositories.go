// package repositories provides the persistence layer: per-user snapshots
// and OAuth tokens, both keyed by user identity with full-overwrite
// semantics.
package repositories
