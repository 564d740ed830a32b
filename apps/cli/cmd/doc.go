// Package cmd implements the courier CLI commands using Cobra.
//
// Available commands:
//   - send: Send a single HTTP request built from flags or a request file
//   - get, head, options, delete, post, put, patch: Verb shorthands for send
//   - bench: Benchmark a request with a concurrent worker pool
//   - history: Show or clear the local request history
//   - init: Create a starter request file and config in the current directory
//   - version: Show courier version information
//
// Flag defaults come from COURIER_* environment variables and the
// .courier.config.json file; explicit flags always win. Exit codes
// distinguish usage errors, transport failures, unsuccessful statuses,
// and schema validation failures.
package cmd
