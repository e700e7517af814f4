// Package mutation runs single remote writes on behalf of UI actions.
//
// A Runner wraps one write function and tracks {IsRunning, Error} for it. Every run notifies
// Starts, then Success or Error(message), then Ends. Failures, including panics, are turned into
// a user-facing message by a Classifier and never reach the caller.
//
// Run is synchronous. Callers that want fire-and-forget semantics start it in a goroutine:
//
//	go runner.Run(ctx, payload)
package mutation
