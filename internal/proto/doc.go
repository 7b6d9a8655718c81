// Package proto is the wire contract of the identity network node: request and
// response messages, the gRPC service descriptor, and a typed client.
//
// Messages travel as JSON through a codec registered under the "json"
// content-subtype, so the contract is plain Go and needs no code generation.
// Clients select it with grpc.CallContentSubtype(CodecName); servers pick it
// up automatically from the request's content-type.
package proto
