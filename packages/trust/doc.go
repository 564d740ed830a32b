// Package trust decides whether TLS certificate chains are accepted.
//
// An Aggregator consults the platform trust store plus any number of
// caller-supplied anchors in order; the first authority that accepts a
// chain wins. When every authority rejects it, the failure carries no
// detail: individual authorities' errors are suppressed, and the chain
// contents never appear in the message.
package trust
