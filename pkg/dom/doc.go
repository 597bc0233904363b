// Package dom defines the platform surface the drag and drop controllers
// talk to: documents that resolve selectors, elements that carry marker
// classes and native listeners, and the events and data transfers the
// platform delivers.
//
// Two implementations ship with the module:
//   - memdom: an in-memory document used by tests, scenarios and the
//     bridge server's page mirror
//   - jsdom: a syscall/js binding for browsers (GOOS=js GOARCH=wasm)
//
// # Class Lists
//
// AddClassName, RemoveClassName and HasClassName operate on whitespace
// separated class attributes by token, never by substring.
package dom
