// Package wallet finds and opens the wallet the user connects with.
//
// A Selector gathers candidate providers (an injected Ethereum JSON-RPC
// endpoint and any registered provider options such as the local keystore
// wallet), lets the user pick one when there is a choice, and asks the chosen
// provider for account access. Providers speak the EIP-1193 request shape
// through RawProvider.
package wallet
