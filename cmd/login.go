/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/cinescope/apiserver/types"
	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authUsername string
	authPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.Register(cmd.Context(), types.RegisterRequest{
			Email:    authEmail,
			Username: authUsername,
			Password: authPassword,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", resp.User.Username)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.Login(cmd.Context(), types.LoginRequest{Email: authEmail, Password: authPassword})
		if err != nil {
			return err
		}
		// Pull the full profile so favorites are cached with the session.
		if _, err := client.Profile(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", resp.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}
		return client.Logout()
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, store, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := requireLogin(store); err != nil {
			return err
		}
		user, err := client.Profile(cmd.Context())
		if err != nil {
			return err
		}
		out := renderTable([]string{"Field", "Value"}, [][]string{
			{"ID", user.ID},
			{"Username", user.Username},
			{"Email", user.Email},
			{"Favorite movies", fmt.Sprint(len(user.FavoriteMovies))},
			{"Favorite TV shows", fmt.Sprint(len(user.FavoriteTVShows))},
		})
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)

	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	registerCmd.Flags().StringVar(&authUsername, "username", "", "public username")
	_ = registerCmd.MarkFlagRequired("username")
}
