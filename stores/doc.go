// Package stores assembles the view-state stores of the application from the services' resolvers.
//
// Each constructor returns a *viewstate.Store; callers drive it with SetFilters and observe it with
// Subscribe. Stores that show a single selected entity clear it whenever their filters change so a
// view never shows the previous entity while the next one loads.
package stores
