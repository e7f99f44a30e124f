// Package cli provides the interactive marketplace command-line client.
//
// An App is the terminal counterpart of one browser tab: it shares the
// session database with every other App pointed at the same file and hears
// about their logins and logouts through the configured notifier, refreshing
// its prompt and command list accordingly.
//
// Key features:
//   - Login, signup with an emailed verification code, logout
//   - Project listing and details, project creation for buyers
//   - Bidding for sellers, two-step bid selection for buyers
//   - Completion of selected work with a file upload
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See NewApp and runREPL for details.
package cli
