// Package auth holds the node's credential primitives: HS256 access tokens
// whose subject is a DID, EIP-4361 sign-in messages, and recovery of the
// signer of an EIP-191 personal_sign signature.
package auth
