// Package proxy manages a pool of outbound proxy endpoints: rotation between
// healthy endpoints under several strategies, failure accounting driven by
// the caller's success/failure reports, and concurrent active health probing.
//
// The pool never performs network I/O itself; probing goes through an
// injected ProbeFunc so the embedding layer decides how an endpoint is
// verified. All record state is synchronized, since rotation, reports and a
// running health sweep can touch the same record at once.
package proxy
