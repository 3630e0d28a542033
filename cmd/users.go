/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/db"
	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/internal/services"
	"github.com/cinescope/apiserver/internal/storage"
	"github.com/cinescope/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// usersCmd groups account administration against the database.
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer user accounts",
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user account by username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		conn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		var objects services.ObjectStore
		bucket, err := storage.Open(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		if bucket != nil {
			objects = bucket
		}

		users := services.NewUserService(store.NewUserRepository(conn), objects)
		if err := users.DeleteByUsername(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete %s: %w", args[0], err)
		}
		logging.Info().Str("username", args[0]).Msg("user deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}
