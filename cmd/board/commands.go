package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/hardship-board/internal/pipeline"
)

func newListCmd(a *app) *cobra.Command {
	var (
		category string
		sort     string
		mine     bool
		pages    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b := a.board

			if err := b.SetCategory(ctx, category); err != nil {
				return err
			}
			if err := b.SetSort(ctx, pipeline.ParseSortMode(sort)); err != nil {
				return err
			}
			if mine {
				if _, err := b.ToggleMine(ctx); err != nil {
					return err
				}
			}
			for i := 1; i < pages; i++ {
				if err := b.LoadMore(ctx); err != nil {
					return err
				}
			}

			a.printBoard(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", pipeline.AllCategories, "only show this category")
	cmd.Flags().StringVar(&sort, "sort", "", "most-liked, newest, oldest or most-comments")
	cmd.Flags().BoolVar(&mine, "mine", false, "only show my submissions")
	cmd.Flags().IntVar(&pages, "pages", 1, "how many pages of 6 to show")
	return cmd
}

func newPostCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "post <text...>",
		Short: "Share a hardship",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.renderOnChange(cmd.OutOrStdout())

			h, err := a.board.Submit(cmd.Context(), strings.Join(args, " "), category)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nPosted #%d\n", h.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category, one of the configured categories")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newLikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like or unlike a hardship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			res, err := a.board.ToggleLike(cmd.Context(), id)
			if err != nil {
				return err
			}
			state := "unliked"
			if res.IsLiked {
				state = "liked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s (%d likes)\n", id, state, res.Likes)
			return nil
		},
	}
}

func newCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text...>",
		Short: "Comment on a hardship",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			c, err := a.board.AddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Commented on #%d: %s\n", id, c.Text)
			return nil
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories a hardship may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range a.svc.Categories() {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
