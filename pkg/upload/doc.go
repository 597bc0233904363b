// Package upload persists files that users drop onto drop targets or pick
// through the chooser fallback.
//
// A Sink attaches to a drop controller and writes every delivered file to
// a Store:
//
//	store, _ := upload.NewDiskStore("/var/lib/dnd/uploads", 50<<20)
//	sink := upload.NewSink(store)
//	sink.Attach(dropController)
//	sink.OnSaved(func(s upload.Saved) { log.Println("stored", s.Name, s.ID) })
//
// Two stores are provided: DiskStore writes to a local directory and
// S3Store writes to a bucket through the AWS SDK.
//
// When controllers run on the server behind the bridge, the browser client
// posts dropped files to Handler over plain HTTP instead of pushing large
// payloads through the WebSocket:
//
//	r.Post("/dnd/upload", upload.Handler(store))
//
// # Security
//
// Config.MaxFileSize is enforced on the bytes actually read, not the
// declared size. Config.AllowedTypes is checked against the type the
// platform reported for the file.
package upload
