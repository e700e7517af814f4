// Package actions builds the mutation runners of the application.
//
// Every runner wraps exactly one service write and classifies its failure into a sentence for the
// user. Runners that guard privileged writes report "Permission denied." for permission-denied
// failures; all other failures use the runner's fallback sentence.
package actions
