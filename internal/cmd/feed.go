package cmd

import (
	"context"
	stderrors "errors"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
	"github.com/aditya-makadiya/sociofeed/pkg/prompter"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/spf13/cobra"
)

var (
	feedPages int
	feedMore  bool
)

type pager[T any] struct {
	first func(ctx context.Context) result.Result[pagination.Cursor[T]]
	next  func(ctx context.Context) result.Result[pagination.Cursor[T]]
}

// load fetches up to pages pages, stopping early when the list is exhausted
func (p pager[T]) load(ctx context.Context, pages int) (pagination.Cursor[T], error) {
	cur, err := settle(p.first(ctx))
	if err != nil {
		return cur, err
	}
	for i := 1; i < pages && cur.HasMore; i++ {
		if cur, err = settle(p.next(ctx)); err != nil {
			return cur, err
		}
	}
	return cur, nil
}

// browse prints the first page, then asks for one more page per Enter on
// stdin until the list is exhausted, input ends or ctx is done
func browse(ctx context.Context, title string, ctrl *pagination.Controller[api.Post], first func(context.Context) result.Result[pagination.Cursor[api.Post]]) error {
	cur, err := settle(first(ctx))
	if err != nil {
		return err
	}
	if err := output.PrintPosts(title, cur.Items, false); err != nil {
		return err
	}
	shown := len(cur.Items)

	signals := make(chan struct{})
	ready := make(chan bool, 1)
	ready <- cur.HasMore
	go func() {
		defer close(signals)
		for {
			select {
			case more := <-ready:
				if !more {
					return
				}
			case <-ctx.Done():
				return
			}
			if _, err := prompter.PromptString("Press Enter for more (Ctrl-D to stop) "); err != nil {
				return
			}
			select {
			case signals <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	err = ctrl.Watch(ctx, signals, func(cur pagination.Cursor[api.Post]) {
		if shown < len(cur.Items) {
			if err := output.PrintPosts("", cur.Items[shown:], false); err != nil {
				logger.Warn("Failed to print posts", "error", err)
			}
			shown = len(cur.Items)
		}
		ready <- cur.HasMore
	})
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show your feed",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		if feedMore {
			return browse(ctx, "Feed", a.feed.Feed(), a.feed.LoadFeed)
		}
		cur, err := pager[api.Post]{a.feed.LoadFeed, a.feed.LoadMoreFeed}.load(ctx, feedPages)
		if err != nil {
			return err
		}
		return output.PrintPosts("Feed", cur.Items, cur.HasMore)
	}),
}

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Show the posts you saved",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		if feedMore {
			return browse(ctx, "Saved posts", a.feed.Saved(), a.feed.LoadSaved)
		}
		cur, err := pager[api.Post]{a.feed.LoadSaved, a.feed.LoadMoreSaved}.load(ctx, feedPages)
		if err != nil {
			return err
		}
		return output.PrintPosts("Saved posts", cur.Items, cur.HasMore)
	}),
}

func init() {
	feedCmd.Flags().IntVar(&feedPages, "pages", 1, "Number of pages to load")
	savedCmd.Flags().IntVar(&feedPages, "pages", 1, "Number of pages to load")
	for _, c := range []*cobra.Command{feedCmd, savedCmd} {
		c.Flags().BoolVar(&feedMore, "more", false, "Load further pages interactively, one per Enter")
	}
}
