// Package engine dispatches registry calls: it stamps entropy, routes the call
// to its decider, folds accepted events into a staged overlay, settles any
// payment, persists the result, and only then commits the overlay to state.
//
// Calls run one at a time. A call that fails at any step leaves registry
// state, the journal, and balances as they were.
package engine
