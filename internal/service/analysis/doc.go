// Package analysis provides the application service that enriches ads
// with AI image and copy analyses.
//
// The Analyze* methods validate and queue work; the Run* methods do the
// analysis and are what the dispatched tasks call. An ad is analyzed at
// most once per type.
package analysis
