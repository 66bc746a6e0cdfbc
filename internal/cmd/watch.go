package cmd

import (
	"context"
	"fmt"

	"github.com/aditya-makadiya/sociofeed/pkg/config"
	"github.com/aditya-makadiya/sociofeed/pkg/live"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/aditya-makadiya/sociofeed/pkg/service"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow your feed live",
	Long: `Load the first page of your feed, then print new posts and like and
comment counts as the server pushes them. Stop with Ctrl-C.`,
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		if _, err := settle(a.feed.LoadFeed(ctx)); err != nil {
			return err
		}

		streamURL, err := live.StreamURL(config.GetString("api.base_url"), config.GetString("live.path"))
		if err != nil {
			return err
		}
		cfg := live.DefaultConfig(streamURL)
		cfg.Cookies = a.client.Cookies
		cfg.HeartbeatInterval = config.GetDuration("live.heartbeat")
		cfg.ReconnectMaxDelay = config.GetDuration("live.reconnect_max")

		events := make(chan string, 32)
		unsubscribe := a.store.Subscribe(func(act store.Action) {
			if line := describe(a.store, act); line != "" {
				select {
				case events <- line:
				default:
				}
			}
		})
		defer unsubscribe()

		stream := live.NewClient(cfg)
		if err := stream.Connect(ctx); err != nil {
			return err
		}
		defer stream.Close()

		stop := service.NewLiveService(a.client, a.store).Start(ctx, stream)
		defer stop()

		output.PrintInfo("Watching for updates. Press Ctrl-C to stop.")
		for {
			select {
			case <-ctx.Done():
				return nil
			case line := <-events:
				output.PrintLine(line)
			}
		}
	}),
}

// describe renders a pushed change as one line
func describe(st *store.Store, act store.Action) string {
	switch act := act.(type) {
	case store.PostReceived:
		return output.PostCard(act.Post)
	case store.PostPatched:
		p, ok := st.Posts().Find(act.PostID)
		if !ok {
			return ""
		}
		return output.PostLine(p)
	case store.FollowPatched:
		if act.Patch.FollowerCount == nil {
			return ""
		}
		return fmt.Sprintf("user %s now has %d followers", act.UserID, *act.Patch.FollowerCount)
	}
	return ""
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
