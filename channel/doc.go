// Package channel provides the dataflow channels that connect flowkit
// processes.
//
// A channel is an ordered, single-producer data source with two behavioral
// flavors. A Value channel holds one item and returns it unchanged on every
// read, by any number of consumers. A Stream channel delivers each item to
// exactly one consumer, in order, and transitions to a closed terminal state
// once exhausted. A Broadcast fans one produced sequence out to independent
// per-subscriber cursors.
//
// Reads are pull-based and context-aware:
//
//	v, ok, err := ch.Read(ctx)
//	if !ok {
//	    // stream exhausted
//	}
package channel
