// Package errors provides coded, user-facing errors for the dnd tools.
//
// Every error has a registered code that maps to a category, a short
// message and an explanation:
//
//   - E1xx: config file problems
//   - E2xx: bridge protocol violations
//   - E3xx: scenario parsing and replay failures
//   - E4xx: upload storage failures
//   - E5xx: command line usage
//
// Errors raised while reading a file carry its location, and Format shows
// the surrounding lines:
//
//	err := errors.New(errors.ScenarioNoElement).
//	    WithLocation("board.yaml", 14, 11).
//	    WithDetailf("no element with id %q", "colum")
//	errors.Print(os.Stderr, err)
package errors
