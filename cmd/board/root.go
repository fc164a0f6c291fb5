package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/hardship-board/internal/board"
	"github.com/sakif/hardship-board/internal/config"
	"github.com/sakif/hardship-board/internal/events"
	"github.com/sakif/hardship-board/internal/kv"
	"github.com/sakif/hardship-board/internal/pipeline"
	"github.com/sakif/hardship-board/internal/render"
	"github.com/sakif/hardship-board/internal/repository/kvstore"
	"github.com/sakif/hardship-board/internal/service"
)

// app is the state every subcommand shares. It is filled in by the root
// command's PersistentPreRunE and torn down by execute, which runs whether or
// not the command succeeded.
type app struct {
	file     string
	redisURL string
	viewerID int64
	verbose  bool

	cfg    *config.Config
	logger *slog.Logger
	medium kv.Store
	svc    *service.HardshipService
	board  *board.Board
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "board",
		Short:         "Hardship board client",
		Long:          `Post, browse, like and comment on hardships stored in a local JSON file or a Redis key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.file, "file", "", "board file (default BOARD_FILE, data/board.json)")
	root.PersistentFlags().StringVar(&a.redisURL, "redis", "", "Redis URL; overrides --file (default REDIS_URL)")
	root.PersistentFlags().Int64Var(&a.viewerID, "viewer", 0, "viewer id to act as (default DEFAULT_VIEWER_ID)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every operation to stderr")

	root.AddCommand(
		newListCmd(a),
		newPostCmd(a),
		newLikeCmd(a),
		newCommentCmd(a),
		newCategoriesCmd(a),
	)
	return root, a
}

// execute runs root and then releases the medium. cobra skips
// PersistentPostRunE when RunE fails, so closing happens here instead.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	return errors.Join(err, a.close())
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if a.verbose {
		level = cfg.SlogLevel()
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	medium, err := a.openMedium(cmd.Context())
	if err != nil {
		return err
	}
	a.medium = medium

	viewerID := a.viewerID
	if viewerID <= 0 {
		viewerID = cfg.DefaultViewerID
	}

	a.svc = service.NewHardshipService(kvstore.New(medium, cfg.BoardKey), a.logger, service.Config{
		Categories:    cfg.CategoryList(),
		MaxTextLength: cfg.MaxTextLength,
		Events:        events.NewLogPublisher(a.logger),
	})
	a.board = board.New(a.svc, viewerID, a.logger)
	return nil
}

// openMedium picks Redis when a URL is given, otherwise the JSON file.
func (a *app) openMedium(ctx context.Context) (kv.Store, error) {
	redisURL := a.redisURL
	if redisURL == "" {
		redisURL = a.cfg.RedisURL
	}
	if redisURL != "" {
		r, err := kv.NewRedis(ctx, redisURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return r, nil
	}

	path := a.file
	if path == "" {
		path = a.cfg.BoardFile
	}
	// NewFile creates the parent directory; the file appears on first write.
	return kv.NewFile(path)
}

func (a *app) close() error {
	if a.medium == nil {
		return nil
	}
	err := a.medium.Close()
	a.medium = nil
	return err
}

// renderOnChange subscribes a text renderer, so a mutation prints the board
// as it looks afterwards.
func (a *app) renderOnChange(w io.Writer) {
	a.board.Subscribe(func(_ pipeline.Page) {
		a.printBoard(w)
	})
}

func (a *app) printBoard(w io.Writer) {
	views, page, err := a.board.Views(context.Background())
	if err != nil {
		fmt.Fprintln(w, "could not load board:", err)
		return
	}
	if err := render.Text(w, views, page); err != nil {
		a.logger.Warn("failed to render board", slog.String("error", err.Error()))
	}
}
