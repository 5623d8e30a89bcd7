// package tasks implements the library sync orchestrator.
//
// The core abstraction is [Engine], which drives an end-to-end run: paginate
// the playlist listing, fetch every playlist's tracks through a bounded
// prefetch pool, normalize and index them, optimize each playlist, write
// incremental checkpoints, and finish with the index-application pass and one
// final snapshot write.
//
// Runs emit [ProgressUpdate] events over a caller-owned channel in strict
// processing order, with an explicit terminal complete event, so a streaming
// transport (SSE, a TUI) can render liveness for long syncs. Failures
// isolated to one playlist are reported as error events and the run
// continues; authentication and final-persistence failures end the run.
package tasks
