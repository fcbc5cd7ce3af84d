package main

import (
	"errors"
	"fmt"

	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/route"

	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var req dto.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an email or username",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Email == "" && req.Username == "" {
				if req.Username, err = a.prompt("Username: "); err != nil {
					return err
				}
			}
			if req.Password == "" {
				if req.Password, err = a.prompt("Password: "); err != nil {
					return err
				}
			}

			session, err := a.container.Sessions.Login(cmd.Context(), &req)
			if err != nil {
				return err
			}
			green.Fprintf(a.out, "Selamat datang, %s (%s)\n", session.Username, session.Role)
			faint.Fprintf(a.out, "-> %s\n", route.Landing(session.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Account password")
	cmd.MarkFlagsMutuallyExclusive("email", "username")
	return cmd
}

func (a *app) registerCmd() *cobra.Command {
	var req dto.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			session, err := a.container.Sessions.Register(cmd.Context(), &req)
			if err != nil {
				return err
			}
			green.Fprintf(a.out, "Akun %s dibuat (%s)\n", session.Username, session.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (at least 8 characters)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Repeat the password (defaults to --password)")
	cmd.Flags().StringVar(&req.Role, "role", string(entity.UserRoleUser), "Role: user, admin or superadmin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.container.Sessions.Logout(cmd.Context())
			fmt.Fprintln(a.out, "Anda telah keluar.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session and the menus it can open",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, session := a.container.Sessions.Current()
			if state != entity.SessionAuthenticated || session == nil {
				yellow.Fprintln(a.out, "Belum login.")
				return errors.New("not logged in")
			}

			fmt.Fprintf(a.out, "%s ", session.Username)
			cyan.Fprintf(a.out, "(%s)\n", session.Role)
			if session.Role == entity.UserRoleUser {
				return nil
			}
			for _, item := range route.AdminNavItems(session.Role) {
				fmt.Fprintf(a.out, "  %-20s %s\n", item.Label, item.Path)
			}
			return nil
		},
	}
}
