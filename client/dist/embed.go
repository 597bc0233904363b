package clientdist

import _ "embed"

// DndJS is the browser client for the drag and drop bridge.
//
// It is served by the bridge at "{base}/client.js".
//
//go:embed dnd.js
var DndJS []byte
