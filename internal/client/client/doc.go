// Package client talks to the selfkeeper identity node over gRPC.
//
// # Overview
//
// GRPCClient runs the sign-in handshake (Establish): it asks the node for a
// challenge, has the wallet credential sign it and exchanges the signature
// for a Session. A Session carries the DID and token pair of one sign-in and
// serves record reads and partial merges on its behalf.
//
// Access tokens travel in gRPC metadata, attached by a unary interceptor for
// calls made through a Session. When the node reports an expired token the
// interceptor refreshes the pair once and retries the call.
//
// # Error Handling
//
// gRPC statuses are mapped to sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrRejected, ErrInvalidRecord,
// ErrRateLimited and ErrUnknownSchema.
package client
