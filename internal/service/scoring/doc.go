// Package scoring runs the batch success-scoring computation over every
// collected ad and reports aggregate score statistics.
//
// A run reads one snapshot of all ads, ranks them with the scoring engine
// and upserts one score row per ad in a single transaction. Runs are
// serialized through a scope guard, so concurrent triggers share the
// in-flight run instead of interleaving writes.
//
// Repository implementations live in repository/postgres/.
package scoring
