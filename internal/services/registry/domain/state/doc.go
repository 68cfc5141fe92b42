// Package state holds the registry's persisted shape: one asset counter and
// three maps keyed by asset id (genome, owner, listing price).
//
// Calls never write State directly. Deciders read through a View, accepted
// events are folded into an Overlay, and the Overlay's ChangeSet is applied
// only once the whole call has succeeded. A failed call drops its Overlay and
// leaves State untouched.
package state
