// Package pattern provides the application service for pattern mining
// and success formula generation.
//
// The service reads the scored population for a scope, runs the pattern
// engine over it and replaces the scope's stored patterns in one step. A
// formula is generated from the scope's top patterns through a
// Summarizer and replaces the scope's insights only when the summary
// succeeds.
package pattern
