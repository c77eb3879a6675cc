// Package monitoring provides the application service for scheduled
// keyword collection.
//
// Each active keyword is collected on its cron schedule. Every execution
// is recorded as a run, and runs that find new ads or fail leave a
// notification behind.
package monitoring
