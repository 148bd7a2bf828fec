package main

import (
	"fmt"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/billplanner/internal/api"
)

func registerCmd(a *app) *cobra.Command {
	var email, name, password string
	var save bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.authClient().Register(cmd.Context(), connect.NewRequest(&api.RegisterRequest{
				Email:       email,
				DisplayName: name,
				Password:    password,
			}))
			if err != nil {
				return err
			}
			return a.finishLogin(resp.Msg.User, resp.Msg.Token, save)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (at least 8 characters)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the server and token in the config file")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	var save bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.authClient().Login(cmd.Context(), connect.NewRequest(&api.LoginRequest{
				Email:    email,
				Password: password,
			}))
			if err != nil {
				return err
			}
			return a.finishLogin(resp.Msg.User, resp.Msg.Token, save)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().BoolVar(&save, "save", false, "Store the server and token in the config file")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.authClient().GetCurrentUser(cmd.Context(), connect.NewRequest(&api.GetCurrentUserRequest{}))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", resp.Msg.User.DisplayName, resp.Msg.User.Email, resp.Msg.User.ID)
			return nil
		},
	}
}

func (a *app) finishLogin(user *api.User, token string, save bool) error {
	fmt.Fprintf(a.out, "Logged in as %s <%s>\n", user.DisplayName, user.Email)
	if !save {
		fmt.Fprintf(a.out, "export BILLCTL_TOKEN=%s\n", token)
		return nil
	}

	fc, err := loadFileConfig(a.configPath)
	if err != nil {
		return err
	}
	fc.Server = a.server
	fc.Token = token
	if err := fc.save(a.configPath); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Token saved to %s\n", a.configPath)
	return nil
}
