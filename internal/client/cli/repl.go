package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isConnected() bool
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) error
	Show(ctx context.Context) error
	SetName(ctx context.Context, value string) error
	ShowDraft(ctx context.Context) error
	Update(ctx context.Context) error
	WalletInit(ctx context.Context) error
	WalletImport(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF, when ctx is done, or on "exit"/"quit".
//
//	Disconnected:
//	  connect, status, wallet-init, wallet-import, help, exit
//	Connected:
//	  show, name <value>, draft, update, status, disconnect, help, exit
//
// Handler errors are reported to the user and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("sk> %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}

		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		if cmd == "" {
			continue
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isConnected() {
				printlnFn("Available commands: show, name <value>, draft, update, status, disconnect, exit")
			} else {
				printlnFn("Available commands: connect, status, wallet-init, wallet-import, exit")
			}

		case "connect":
			cmdErr = a.Connect(ctx)

		case "disconnect":
			cmdErr = a.Disconnect(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "show":
			cmdErr = a.Show(ctx)

		case "name":
			// the value is not checked: surrounding blanks are dropped, inner spacing
			// is kept, and "name" alone sets an empty draft
			cmdErr = a.SetName(ctx, strings.TrimSpace(rest))

		case "draft":
			cmdErr = a.ShowDraft(ctx)

		case "update":
			cmdErr = a.Update(ctx)

		case "wallet-init":
			cmdErr = a.WalletInit(ctx)

		case "wallet-import":
			cmdErr = a.WalletImport(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
