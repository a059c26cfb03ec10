package cli

import (
	"context"
	"fmt"
	"log"
)

// Session re-runs the gate when signed out and otherwise re-validates the
// session and prints the signed-in account.
func (a *App) Session(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		a.Gate(ctx)
		return nil
	}

	u, err := a.auth.CheckSession(ctx)
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", u.Email)
	return nil
}

// Login requests a magic login link for the given or prompted email. The
// address is checked by the server only.
func (a *App) Login(ctx context.Context, args []string) error {
	email, err := argOrPrompt(a.reader, a.out, args, "Enter email", "login <email>")
	if err != nil {
		return err
	}

	if err := a.auth.RequestLoginLink(ctx, email); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Check your email (%s) for the login link, then run 'verify <token|link>'.\n", email)
	return nil
}

// Verify spends the one-time token from a login link and enters the file
// view with the new session.
func (a *App) Verify(ctx context.Context, args []string) error {
	token, err := argOrPrompt(a.reader, a.out, args, "Paste the login link or token", "verify <token|link>")
	if err != nil {
		return err
	}

	u, err := a.auth.Verify(ctx, token)
	if err != nil {
		return err
	}

	if err := a.drive.Reset(ctx); err != nil {
		log.Printf("error clearing local files: %v", err)
	}
	a.enterFiles(ctx, u)
	return nil
}

// Logout signs out on the server and clears the local session. With
// --everywhere every session of the account is revoked.
func (a *App) Logout(ctx context.Context, args []string) error {
	everywhere := false
	for _, arg := range args {
		switch arg {
		case "--everywhere", "-a":
			everywhere = true
		default:
			return usageError("logout [--everywhere]")
		}
	}

	err := a.auth.Logout(ctx, everywhere)
	a.signedOut(ctx, "Signed out.")
	return err
}
