package main

import (
	"errors"
	"fmt"

	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/route"
	"kasbi-client/internal/service"

	"github.com/spf13/cobra"
)

func (a *app) adminsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "List admin accounts; superadmins can also manage them",
	}
	cmd.AddCommand(a.adminsListCmd(), a.adminsCreateCmd(), a.adminsUpdateCmd(), a.adminsDeleteCmd())
	return cmd
}

func (a *app) adminsListCmd() *cobra.Command {
	var (
		search string
		page   dto.PageQuery
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.AdminUsers); err != nil {
				return err
			}

			users, err := a.container.Admins.ListUsers(ctx, page)
			if err != nil {
				return err
			}
			for _, u := range service.SearchUsers(users, search) {
				state := green.Sprint("aktif")
				if !u.Active {
					state = faint.Sprint("nonaktif")
				}
				fmt.Fprintf(a.out, "%-6s %-20s %-28s %-11s %s\n", u.Id, u.Username, u.Email, u.Role, state)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by username or email")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "Rows to skip")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "Rows to fetch (0 for the server default)")
	return cmd
}

func (a *app) adminsCreateCmd() *cobra.Command {
	var req dto.CreateAdminUserRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.AdminUsersManage); err != nil {
				return err
			}
			if err := a.container.Admins.CreateUser(ctx, &req); err != nil {
				return err
			}
			green.Fprintf(a.out, "Admin %s dibuat.\n", req.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (at least 8 characters)")
	return cmd
}

func (a *app) adminsUpdateCmd() *cobra.Command {
	var req dto.UpdateAdminUserRequest

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an admin account; an empty password keeps the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.AdminUsersManage); err != nil {
				return err
			}
			if err := a.container.Admins.UpdateUser(ctx, args[0], &req); err != nil {
				return err
			}
			green.Fprintf(a.out, "Admin %s diperbarui.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "New username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "New password")
	return cmd
}

func (a *app) adminsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.enter(ctx, route.AdminUsersManage); err != nil {
				return err
			}

			users, err := a.container.Admins.ListUsers(ctx, dto.PageQuery{})
			if err != nil {
				return err
			}
			var target *entity.AdminUser
			for i := range users {
				if users[i].Username == args[0] {
					target = &users[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("admin %q not found", args[0])
			}

			err = a.container.Admins.DeleteUser(ctx, *target, a)
			if errors.Is(err, service.ErrCancelled) {
				fmt.Fprintln(a.out, "Dibatalkan.")
				return nil
			}
			if err != nil {
				return err
			}
			green.Fprintf(a.out, "Admin %s dihapus.\n", target.Username)
			return nil
		},
	}
}
