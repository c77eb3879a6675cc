// Package domain defines the core types of the ad insights service.
//
// Types in this package are pure value objects with no behavior beyond
// small pure helpers. They are the shared language between the engines,
// services, repositories and handlers.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Pure helpers on the type are allowed (duration, field lookup)
//   - Constants and enums belong here
package domain
