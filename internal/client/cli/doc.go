// Package cli provides the interactive cloud drive command-line client.
//
// It wires configuration, the local session store, the HTTP API client and
// an interactive REPL. Typical flow: restore the stored session (the gate),
// fall back to the magic-link login when there is none, start a background
// session watcher, and execute user commands against the file view.
//
// Key features:
//   - login / verify / logout (magic link, one-time token)
//   - list, view, search over the all/starred/shared/trash views
//   - upload, download, star, share, trash, restore, link, show
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartSessionWatcher, and runREPL for details.
package cli
