package editor

import (
	"context"
	"errors"
	"fmt"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/gateway"
	"mindnoscape/web-app/src/pkg/log"
)

// LoggedIn reports whether the editor holds a credential.
func (e *Editor) LoggedIn() bool {
	return e.cred != nil
}

// Email returns the logged in user's email, or "".
func (e *Editor) Email() string {
	if e.cred == nil {
		return ""
	}
	return e.cred.Email
}

// Login authenticates and starts a session. Results of calls made under a
// previous session are ignored from here on.
func (e *Editor) Login(ctx context.Context, email, password string) error {
	cred, err := e.gw.Login(ctx, email, password)
	if err != nil {
		e.setStatus(fmt.Sprintf("Login failed: %s", describe(err)))
		return err
	}
	e.begin(ctx, cred)
	e.logger.Command(ctx, "user login", log.Fields{"email": cred.Email})
	return nil
}

// Register creates an account and starts a session for it.
func (e *Editor) Register(ctx context.Context, email, password string) error {
	cred, err := e.gw.Register(ctx, email, password)
	if err != nil {
		e.setStatus(fmt.Sprintf("Registration failed: %s", describe(err)))
		return err
	}
	e.begin(ctx, cred)
	e.logger.Command(ctx, "user register", log.Fields{"email": cred.Email})
	return nil
}

func (e *Editor) begin(ctx context.Context, cred *gateway.Credential) {
	e.bump()
	e.cred = cred
	if e.creds != nil {
		if err := e.creds.Save(cred); err != nil {
			e.logger.Warn(ctx, "Failed to persist session", log.Fields{"error": err})
		}
	}
	e.setStatus(fmt.Sprintf("Logged in as %s", cred.Email))
}

// Restore picks up a session persisted by an earlier run and checks it with
// the server. It reports whether a session is now active.
func (e *Editor) Restore(ctx context.Context) (bool, error) {
	if e.creds == nil {
		return false, nil
	}
	cred, err := e.creds.Load()
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	if cred == nil {
		return false, nil
	}

	if _, err := e.gw.Me(ctx, cred); err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			e.logger.Info(ctx, "Stored session rejected", log.Fields{"email": cred.Email})
			if cerr := e.creds.Clear(); cerr != nil {
				e.logger.Warn(ctx, "Failed to remove session file", log.Fields{"error": cerr})
			}
			return false, nil
		}
		return false, fmt.Errorf("failed to verify session: %w", err)
	}

	e.bump()
	e.cred = cred
	e.setStatus(fmt.Sprintf("Logged in as %s", cred.Email))
	return true, nil
}

// Logout ends the session on the server (best effort) and locally, and
// resets the map.
func (e *Editor) Logout(ctx context.Context) {
	if e.cred != nil {
		if err := e.gw.Logout(ctx, e.cred); err != nil {
			e.logger.Warn(ctx, "Server logout failed", log.Fields{"error": err})
		}
		e.logger.Command(ctx, "user logout", log.Fields{"email": e.cred.Email})
	}
	e.endSession(StatusLoggedOut)
}

// endSession drops the credential, its file and the current map. Any
// in-flight results become stale.
func (e *Editor) endSession(status string) {
	e.bump()
	e.cred = nil
	if e.creds != nil {
		if err := e.creds.Clear(); err != nil {
			e.logger.Warn(context.Background(), "Failed to remove session file", log.Fields{"error": err})
		}
	}
	e.ctrl.Cancel()
	e.store.Reset()
	e.events.Publish(event.Event{Type: event.SessionEnded, Data: status})
	e.setStatus(status)
}

// describe turns a gateway error into the short text shown in the status line.
func describe(err error) string {
	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, gateway.ErrUnauthorized):
		return "Invalid email or password"
	default:
		return err.Error()
	}
}
