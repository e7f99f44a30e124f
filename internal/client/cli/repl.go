package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bidmarket/internal/client/services"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	links() services.Links
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	Nav(ctx context.Context) error
	Projects(ctx context.Context) error
	Project(ctx context.Context, id string) error
	Create(ctx context.Context) error
	Bid(ctx context.Context, projectID string) error
	Select(ctx context.Context, projectID, bidID string) error
	MyBids(ctx context.Context) error
	Complete(ctx context.Context, bidID string) error
	Attach(ctx context.Context, bidID, path string) error
	Submit(ctx context.Context, bidID string) error
	Cancel(ctx context.Context, bidID string) error
	Profile(ctx context.Context) error
}

var _ execIface = (*App)(nil)

// helpText lists the commands that make sense for the visible links.
func helpText(l services.Links) string {
	cmds := []string{"projects", "project <id>", "nav"}
	if l.Login {
		cmds = append(cmds, "login")
	}
	if l.Register {
		cmds = append(cmds, "register")
	}
	if l.Profile {
		cmds = append(cmds, "profile")
	}
	// Guests see both dashboards and are asked to log in when they open one.
	if l.BuyerDashboard {
		cmds = append(cmds, "create", "select <projectId> <bidId>")
	}
	if l.SellerDashboard {
		cmds = append(cmds, "bid <projectId>", "mybids", "complete <bidId>", "attach <bidId> <path>", "submit <bidId>", "cancel <bidId>")
	}
	if l.Logout {
		cmds = append(cmds, "logout")
	}
	cmds = append(cmds, "exit")
	return "Available commands: " + strings.Join(cmds, ", ")
}

// runREPL starts a simple read–eval–print loop for the marketplace CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// Commands missing an argument print their usage. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("bm %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		need := func(n int, usage string) bool {
			if len(args) < n {
				printlnFn("Usage:", usage)
				return false
			}
			return true
		}

		switch cmd {
		case "help":
			printlnFn(helpText(a.links()))

		case "login":
			_ = a.Login(ctx)

		case "register":
			_ = a.Register(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "nav":
			_ = a.Nav(ctx)

		case "projects", "ls":
			_ = a.Projects(ctx)

		case "project":
			if need(1, "project <id>") {
				_ = a.Project(ctx, args[0])
			}

		case "create":
			_ = a.Create(ctx)

		case "bid":
			if need(1, "bid <projectId>") {
				_ = a.Bid(ctx, args[0])
			}

		case "select":
			if need(2, "select <projectId> <bidId>") {
				_ = a.Select(ctx, args[0], args[1])
			}

		case "mybids":
			_ = a.MyBids(ctx)

		case "complete":
			if need(1, "complete <bidId>") {
				_ = a.Complete(ctx, args[0])
			}

		case "attach":
			if need(2, "attach <bidId> <path>") {
				_ = a.Attach(ctx, args[0], strings.Join(args[1:], " "))
			}

		case "submit":
			if need(1, "submit <bidId>") {
				_ = a.Submit(ctx, args[0])
			}

		case "cancel":
			if need(1, "cancel <bidId>") {
				_ = a.Cancel(ctx, args[0])
			}

		case "profile":
			_ = a.Profile(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
