// Package collection provides the application service that pulls ads
// from the ad library into the store.
//
// A collect job is created pending and handed to a Dispatcher. The
// dispatched task searches the library, skips ads already stored, copies
// each snapshot image to the creative store and records progress on the
// job as it goes.
package collection
