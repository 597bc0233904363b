// Package scenario describes drag and drop pages in YAML and replays
// gestures against them.
//
// A scenario declares elements, the controllers bound to them, and the
// steps to replay:
//
//	elements:
//	  - {id: card, classes: [card]}
//	  - {id: zone, classes: [zone]}
//	controllers:
//	  - {name: cards, kind: drag, targets: .card, options: {data: [text/plain, card]}}
//	  - {name: zones, kind: drop, targets: .zone, options: {dropEffect: move}}
//	steps:
//	  - gesture: {from: card, to: zone}
//	  - expect: {element: zone, lacks: [dd-dragover]}
//
// Run replays the steps on an in-memory document and reports every
// controller event. Bind applies the controller declarations to any
// document; the bridge server uses it for connected pages.
package scenario
