// Package output renders executed responses.
//
// Supported renderings:
//   - Console: human-readable colored terminal output
//   - JSON: machine-readable rendering of status, headers and body
//   - Query: gjson path extraction from JSON bodies
package output
