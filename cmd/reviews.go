/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/cinescope/apiserver/types"
	"github.com/spf13/cobra"
)

var (
	reviewMovie   string
	reviewContent string
	reviewRating  float64
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "List reviews, optionally for one movie",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		var reviews []types.ReviewResponse
		if reviewMovie != "" {
			reviews, err = client.MovieReviews(cmd.Context(), reviewMovie)
		} else {
			reviews, err = client.Reviews(cmd.Context())
		}
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(reviews))
		for _, r := range reviews {
			rating := ""
			if r.AuthorDetails.Rating != nil {
				rating = fmt.Sprintf("%.1f", *r.AuthorDetails.Rating)
			}
			rows = append(rows, []string{r.ID, r.Author, rating, r.CreatedAt, excerpt(r.Content, 60)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Author", "Rating", "Created", "Content"}, rows, 2))
		return nil
	},
}

var reviewsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Review a movie as the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewMovie == "" {
			return fmt.Errorf("--movie is required")
		}
		client, store, err := newAPIClient()
		if err != nil {
			return err
		}
		current, err := requireLogin(store)
		if err != nil {
			return err
		}

		req := types.CreateReviewRequest{
			MovieID: reviewMovie,
			Author:  current.User.Username,
			AuthorDetails: types.ReviewAuthorDetails{
				Name:         current.User.Username,
				Username:     current.User.Username,
				ProfileImage: current.User.ProfilePicture,
			},
			Content: reviewContent,
		}
		if cmd.Flags().Changed("rating") {
			req.AuthorDetails.Rating = &reviewRating
		}

		review, err := client.CreateReview(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created review %s\n", review.ID)
		return nil
	},
}

var reviewsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}
		return client.DeleteReview(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(reviewsCmd)
	reviewsCmd.AddCommand(reviewsAddCmd, reviewsDeleteCmd)

	reviewsCmd.PersistentFlags().StringVar(&reviewMovie, "movie", "", "TMDB movie id")
	reviewsAddCmd.Flags().StringVar(&reviewContent, "content", "", "review text")
	reviewsAddCmd.Flags().Float64Var(&reviewRating, "rating", 0, "score from 0 to 10")
	_ = reviewsAddCmd.MarkFlagRequired("content")
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
