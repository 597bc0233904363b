//go:build js && wasm

// Package jsdom implements the dom interfaces on top of the browser DOM
// for programs compiled with GOOS=js GOARCH=wasm.
//
//	doc := jsdom.New()
//	dc := dnd.Drop(doc, dnd.Select(".upload"), options.DropOptions{Click: true})
//
// Handlers registered through AddEventListener hold js.Func values; call
// Document.Release when the controllers are no longer needed.
package jsdom
