/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/cinescope/apiserver/types"
	"github.com/spf13/cobra"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List or toggle favorites of the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, store, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := requireLogin(store); err != nil {
			return err
		}
		fav, err := client.Favorites(cmd.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(fav.Movies)+len(fav.TVShows))
		for _, id := range fav.Movies {
			rows = append(rows, []string{string(types.ContentTypeMovie), strconv.FormatInt(id, 10)})
		}
		for _, id := range fav.TVShows {
			rows = append(rows, []string{string(types.ContentTypeTV), strconv.FormatInt(id, 10)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Type", "ID"}, rows, 1))
		return nil
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <movie|tv> <id>",
	Short: "Add or remove a favorite",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ct := types.ContentType(args[0])
		if !ct.Valid() {
			return fmt.Errorf("content type must be movie or tv, got %q", args[0])
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("content id must be a positive integer, got %q", args[1])
		}

		client, store, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := requireLogin(store); err != nil {
			return err
		}
		favorite, err := client.ToggleFavorite(cmd.Context(), ct, id)
		if err != nil {
			return err
		}
		if favorite {
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %d to favorites\n", ct, id)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %d from favorites\n", ct, id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
}
