// Package order defines the diagnostic test orders that clinics hand to
// analyzers through the bounded queue.
//
// A TestOrder is created by a producer right before it is queued and is
// read-only afterwards, with one exception: the queue stamps the moment of
// insertion exactly once through MarkEnqueued. Order IDs come from a
// process-wide Sequence and are unique for the lifetime of the process.
//
// The Priority attribute is payload only. Nothing in labsync reorders orders
// by priority; the queue is strictly FIFO.
package order
