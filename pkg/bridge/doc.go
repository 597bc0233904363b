// Package bridge runs drag and drop controllers server side for a live
// browser page.
//
// The page loads the client from {base}/client.js and opens a websocket to
// {base}/ws. Its first frame is a snapshot of every element with an id,
// which the session mirrors into a memdom document. The SetupFunc then
// creates controllers on that document:
//
//	srv := bridge.New(func(s *bridge.Session) error {
//		doc := s.Document()
//		s.AddDrop("uploads", dnd.Drop(doc, dnd.Select(".upload"), options.DropOptions{Click: true}))
//		return nil
//	})
//	http.ListenAndServe(":8420", srv.Handler())
//
// Native events are replayed on the mirror one frame at a time. Class and
// attribute changes the controllers make are sent back as "attr" frames
// and controller events as "emit" frames.
//
// Frames are JSON objects with a "type" field:
//
//	client: snapshot, event, select
//	server: ready, attr, emit, error
package bridge
