package cli

import (
	"fmt"
	"strings"

	httputil "brokerage/pkg/http"

	"github.com/spf13/cobra"
)

func newLoginCmd(o *options) *cobra.Command {
	var user, role string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the identity used for API calls",
		Long:  "Saves the user id and role sent to the hold service. The gateway in front of the service is trusted to vouch for them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(o, user, role)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user id (required)")
	cmd.Flags().StringVar(&role, "role", httputil.RoleCTV, "role (CTV|ADMIN)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runLogin(o *options, user, role string) error {
	user = strings.TrimSpace(user)
	role = normalizeRole(role)
	if user == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if role != httputil.RoleCTV && role != httputil.RoleAdmin {
		return fmt.Errorf("role must be %s or %s, got %q", httputil.RoleCTV, httputil.RoleAdmin, role)
	}

	// Keep a previously stored server unless a new one is given.
	s, err := o.session.Load()
	if err != nil {
		s = Session{}
	}
	s.UserID = user
	s.Role = role
	if o.server != "" {
		s.ServerURL = o.server
	}

	if err := o.session.Save(s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintf(o.out, "Logged in as %s (%s) on %s\n", s.UserID, s.Role, o.serverURL(s))
	return nil
}

func newLogoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(o)
		},
	}
}

func runLogout(o *options) error {
	s, err := o.session.Load()
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if !s.LoggedIn() {
		fmt.Fprintln(o.out, "Not logged in.")
		return nil
	}

	if err := o.session.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	fmt.Fprintln(o.out, "Logged out.")
	return nil
}

func newWhoamiCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.session.Load()
			if err != nil {
				return fmt.Errorf("loading session: %w", err)
			}
			if !s.LoggedIn() {
				return ErrNotLoggedIn
			}
			s.ServerURL = o.serverURL(s)
			if o.isJSON() {
				return printJSON(o.out, s)
			}
			fmt.Fprintf(o.out, "User:    %s\nRole:    %s\nServer:  %s\n", s.UserID, s.Role, s.ServerURL)
			return nil
		},
	}
}
