// Package launcher turns a task.Run into a supervised subprocess. It
// materializes the work-directory artifacts, spawns the shell runner with
// stderr merged into stdout, pumps stdin and output concurrently, enforces
// the run's wall-clock bound, and records a classified terminal result on
// the run. The launcher never returns an error for a nonzero exit or a
// timeout kill; those are recorded as a Failed status instead.
package launcher
