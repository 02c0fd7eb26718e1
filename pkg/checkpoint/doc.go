// Package checkpoint persists pipeline cursors so interrupted runs resume
// where they left off.
//
// Two cursor shapes are used: the discovery pipeline stores the next page
// offset of the address listing, and the withdrawal pipeline stores the
// index of the last fully processed input row. Cursors are saved only
// after the corresponding CSV output is durable, so a crash between the
// two re-processes at most one unit of work.
//
// Checkpoint files are written atomically (temp file, sync, rename) to
// prevent corruption. A file that exists but cannot be decoded is an
// error rather than a silent restart: restarting from zero would
// duplicate every row already written to the sinks.
package checkpoint
