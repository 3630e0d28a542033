/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cinescope/apiserver/types"
	"github.com/spf13/cobra"
)

var (
	searchType string
	searchPage int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search movies and TV shows",
	Long: `Searches the catalog by title. Usage:

	cinescope search "heat"
	cinescope search --type tv --page 2 "the wire"
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query must not be empty")
		}
		switch searchType {
		case "multi", "movie", "tv":
		default:
			return fmt.Errorf("type must be one of: multi, movie, tv")
		}

		client, _, err := newAPIClient()
		if err != nil {
			return err
		}
		page, err := client.Search(cmd.Context(), searchType, query, max(1, searchPage))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderMedia(page.Results))
		fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d results\n", page.Page, page.TotalPages, page.TotalResults)
		return nil
	},
}

var genresCmd = &cobra.Command{
	Use:   "genres <movie|tv>",
	Short: "List the genre ids usable with browse --fetch genre",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ct := types.ContentType(args[0])
		if !ct.Valid() {
			return fmt.Errorf("content type must be movie or tv, got %q", args[0])
		}

		client, _, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.Genres(cmd.Context(), ct)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list.Genres))
		for _, g := range list.Genres {
			rows = append(rows, []string{strconv.Itoa(g.ID), g.Name})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name"}, rows, 0))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd, genresCmd)
	searchCmd.Flags().StringVar(&searchType, "type", "multi", "what to search (multi, movie, tv)")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "result page")
}
