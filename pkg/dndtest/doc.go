// Package dndtest simulates native drag and drop delivery on memdom
// elements and records controller events.
//
//	doc := memdom.New()
//	zone := doc.CreateElement("div", "zone")
//	dc := dnd.Drop(doc, dnd.Elements(zone), options.DropOptions{})
//	rec := dndtest.Record(&dc.Emitter, dnd.EventDrop)
//
//	dndtest.DropFiles(zone, dndtest.TextFile("a.txt", "hello"))
//	// rec.Names() == []string{"drop"}
package dndtest
