// Package options validates and canonicalizes controller configuration.
//
// Normalization never fails. An effect string outside its closed set
// becomes EffectUnset, and drag data that does not fit one of the accepted
// shapes becomes absent:
//
//	options.NormalizeDrag(options.DragOptions{
//	    EffectAllowed: "copyMove",
//	    Data:          map[string]any{"id": 42},
//	})
//	// EffectAllowed: copyMove
//	// Data: [application/json {"id":42}]
package options
