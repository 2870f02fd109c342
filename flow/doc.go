// Package flow is the dataflow layer: it resolves declared process inputs
// into channels, combines them into index-aligned input tuples, validates
// the process network for cycles, and drives task execution over the tuple
// stream. Cardinality follows the channel kinds: a process whose inputs are
// all value channels runs exactly once; any stream input turns the process
// into one invocation per aligned tuple, stopping when the shortest stream
// exhausts.
package flow
