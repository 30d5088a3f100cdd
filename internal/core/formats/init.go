// Package formats registers the third-party export layouts with the core
// format registry. Import it for side effects wherever sheets are parsed.
//
// Each layout registers itself from an init function in its own file.
package formats
