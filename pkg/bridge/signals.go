package bridge

import "github.com/zoobzio/capitan"

// Session lifecycle signals.
var (
	SessionStarted = capitan.NewSignal("dnd.bridge.session.started", "Bridge session built its document mirror")
	SessionClosed  = capitan.NewSignal("dnd.bridge.session.closed", "Bridge session closed")
)

// Dispatch signals.
var (
	EventDispatched = capitan.NewSignal("dnd.bridge.event.dispatched", "Browser event replayed on the mirror")
	ProtocolError   = capitan.NewSignal("dnd.bridge.protocol.error", "Browser message rejected")
)

// Field keys carried by bridge signals.
var (
	KeySession  = capitan.NewStringKey("session")
	KeyEvent    = capitan.NewStringKey("event")
	KeyTarget   = capitan.NewStringKey("target")
	KeyError    = capitan.NewStringKey("error")
	KeyElements = capitan.NewIntKey("elements")
	KeyFiles    = capitan.NewIntKey("files")
	KeyDuration = capitan.NewDurationKey("duration")
)
