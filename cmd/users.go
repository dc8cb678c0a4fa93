// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"gridwatch/internal/auth"
	"gridwatch/internal/model"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	newUserEmail string
	newUserRole  string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage web accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts and their roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := st.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		data := pterm.TableData{{"ID", "Username", "Email", "Role", "Created"}}
		for _, u := range users {
			data = append(data, []string{
				fmt.Sprint(u.ID), u.Username, u.Email, string(u.Role),
				u.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account, prompting for the password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !auth.ValidRole(newUserRole) {
			return fmt.Errorf("invalid role %q (admin, analyst or viewer)", newUserRole)
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer st.Close()

		accounts := auth.NewService(st, logger)
		u, err := accounts.Register(cmd.Context(), auth.Registration{
			Username: args[0],
			Email:    newUserEmail,
			Password: password,
			Confirm:  confirm,
		})
		if err != nil {
			return err
		}
		if model.Role(newUserRole) != u.Role {
			if err := accounts.SetRole(cmd.Context(), u.ID, newUserRole); err != nil {
				return err
			}
		}
		pterm.Success.Printfln("User %s created with role %s", u.Username, newUserRole)
		return nil
	},
}

var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <username> <role>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := st.UserByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := auth.NewService(st, logger).SetRole(cmd.Context(), u.ID, args[1]); err != nil {
			return err
		}
		if u.Username == auth.DefaultAdminUsername && args[1] != string(model.RoleAdmin) {
			pterm.Warning.Println("The default admin account no longer has admin rights")
		}
		pterm.Success.Printfln("User %s role changed to %s.", u.Username, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersSetRoleCmd)
	usersCreateCmd.Flags().StringVar(&newUserEmail, "email", "", "Email address (required)")
	usersCreateCmd.Flags().StringVar(&newUserRole, "role", string(model.RoleViewer), "Role: admin, analyst or viewer")
	_ = usersCreateCmd.MarkFlagRequired("email")
}
