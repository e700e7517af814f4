// Package viewstate holds reactive view-state stores fed by live queries.
//
// A Store caches {Data, Filters, IsLoading, Err} for one screen element. SetFilters is the only
// mutator; the store's livequery.Switch patches the state as snapshots arrive. Listeners receive
// a copy of the state after every change.
package viewstate
