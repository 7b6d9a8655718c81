// Package cli provides the interactive selfkeeper command-line client.
//
// It wires configuration, the identity client, the connection controller
// and the profile editor behind a REPL. The prompt shows the connection
// status; a background watcher pings the identity node and reports when it
// goes offline or comes back.
//
// Key commands:
//   - connect / disconnect: pick a wallet and sign in, or sign out
//   - show: print the profile of the connected identity
//   - name <value> / update: edit the name draft and save it
//   - wallet-init / wallet-import: set up the local keystore wallet
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
