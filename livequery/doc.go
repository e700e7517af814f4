// Package livequery turns a filter into a live, cancellable subscription to a remote collection.
//
// A resolver maps a *docstore.Filter onto a document or query watch and converts every snapshot
// into domain values with a Mapper. The resulting LiveQuery can be subscribed to any number of
// times; each Subscription drains its own snapshot iterator in one goroutine.
//
// Switch keeps at most one subscription alive. Every Set cancels the previous subscription before
// the next one is opened, and emissions of superseded subscriptions are dropped under the switch
// lock, so a slow old watch can never overwrite the state of a newer filter.
package livequery
