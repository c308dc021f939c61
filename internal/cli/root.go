// Package cli defines the cobra command tree for holdctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	DefaultServerURL = "http://localhost:8080"
	EnvServerURL     = "HOLDCTL_SERVER"
)

type options struct {
	session SessionProvider
	out     io.Writer
	format  string
	server  string
	timeout time.Duration
}

// NewRootCmd builds holdctl. The session provider is shared by every command.
func NewRootCmd(session SessionProvider, out io.Writer) *cobra.Command {
	o := &options{session: session, out: out}

	root := &cobra.Command{
		Use:           "holdctl",
		Short:         "Manage property holds",
		Long:          "Place, extend and cancel property holds, and run admin tasks against the hold service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&o.format, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&o.server, "server", "", "hold service URL (default: session, $"+EnvServerURL+" or "+DefaultServerURL+")")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 15*time.Second, "request timeout")

	root.AddCommand(
		newLoginCmd(o),
		newLogoutCmd(o),
		newWhoamiCmd(o),
		newHoldCmd(o),
		newCheckCmd(o),
		newSweepCmd(o),
		newConfigCmd(o),
		newVersionCmd(o),
	)

	return root
}

// Execute runs holdctl with the session file in the user's home directory.
func Execute() int {
	path, err := DefaultSessionPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if err := NewRootCmd(NewFileSessionProvider(path), os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func (o *options) isJSON() bool {
	return o.format == "json"
}

// serverURL resolves the flag, then the environment, then the session.
func (o *options) serverURL(s Session) string {
	if o.server != "" {
		return o.server
	}
	if v := os.Getenv(EnvServerURL); v != "" {
		return v
	}
	if s.ServerURL != "" {
		return s.ServerURL
	}
	return DefaultServerURL
}

// client returns an API client for the logged in user.
func (o *options) client() (*HoldClient, Session, error) {
	s, err := o.session.Load()
	if err != nil {
		return nil, Session{}, fmt.Errorf("loading session: %w", err)
	}
	if !s.LoggedIn() {
		return nil, Session{}, ErrNotLoggedIn
	}
	s.ServerURL = o.serverURL(s)
	return NewHoldClient(s), s, nil
}

func (o *options) context() (context.Context, context.CancelFunc) {
	timeout := o.timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func normalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}
