// Package emitter provides the publish/subscribe channel every drag and
// drop controller exposes to its callers.
//
// Listeners are identified by *Listener handles because Go func values are
// not comparable:
//
//	em := emitter.New[*dnd.Event]()
//	l := em.OnFunc("drop", func(e *dnd.Event) { ... })
//	em.Off("drop", l)
//
// Emit works on a snapshot of the channel, so additions made by a listener
// take effect on the next emit, while removals take effect immediately.
package emitter
