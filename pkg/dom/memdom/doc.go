// Package memdom is an in-memory implementation of the dom interfaces.
//
// A Document is a flat list of elements with attributes, class lists and
// native listeners. Events are delivered with Element.Dispatch, so tests
// and scenarios can play the part of the browser:
//
//	doc := memdom.New()
//	zone := doc.CreateElement("div", "zone", "upload")
//	dnd.Drop(doc, dnd.Select(".upload"), options.DropOptions{})
//	zone.Dispatch(memdom.NewDragEvent("dragenter", nil))
//
// Selectors support tag, *, #id, .class, [attr] and [attr=value] compounds
// joined by commas. Attribute mutations can be observed with
// Document.Observe.
package memdom
