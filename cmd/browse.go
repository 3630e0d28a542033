/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/cinescope/apiserver/internal/catalog"
	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/types"
	"github.com/spf13/cobra"
)

var (
	browseType  string
	browseFetch string
	browseGenre int
	browsePages int
)

// browseCmd pages through one catalog row and prints what it accumulated.
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Page through a catalog row",
	Long: `Loads pages of a catalog row until --pages pages are loaded or the
row is exhausted. Usage:

	cinescope browse --type movie --fetch trending --pages 2
	cinescope browse --type tv --fetch genre --genre 18
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria := catalog.Criteria{
			ContentType: types.ContentType(browseType),
			FetchType:   types.FetchType(browseFetch),
			GenreID:     browseGenre,
		}
		if !catalog.Supported(criteria) {
			return fmt.Errorf("unsupported row %s/%s", browseType, browseFetch)
		}

		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		row := catalog.NewRow(client, criteria)
		unsubscribe := row.Subscribe(func(s catalog.RowState) {
			logging.Debug().Int("page", s.CurrentPage).Int("total_pages", s.TotalPages).Int("items", len(s.Items)).Msg("row advanced")
		})
		defer unsubscribe()

		state := row.State()
		for i := 0; i < browsePages && !state.Done; i++ {
			if state, err = row.Next(cmd.Context()); err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderMedia(state.Items))
		fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d results\n", state.CurrentPage, state.TotalPages, state.TotalResults)
		return nil
	},
}

// renderMedia tables list entries with their position, id, title, date and score.
func renderMedia(items []types.MediaItem) string {
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		date := item.ReleaseDate
		if date == "" {
			date = item.FirstAirDate
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(item.ID, 10),
			item.DisplayTitle(),
			item.MediaType,
			date,
			strconv.FormatFloat(item.VoteAverage, 'f', 1, 64),
		})
	}
	return renderTable([]string{"#", "ID", "Title", "Type", "Date", "Rating"}, rows, 0, 1, 5)
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().StringVar(&browseType, "type", string(types.ContentTypeMovie), "content type (movie, tv)")
	browseCmd.Flags().StringVar(&browseFetch, "fetch", string(types.FetchTrending), "listing (trending, topRated, popular, genre, upcoming for movies)")
	browseCmd.Flags().IntVar(&browseGenre, "genre", 0, "genre id for the genre listing")
	browseCmd.Flags().IntVar(&browsePages, "pages", 1, "number of pages to load")
}
