package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow <userId>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		return setFollowing(ctx, a, args[0], true)
	}),
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <userId>",
	Short: "Stop following a user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		return setFollowing(ctx, a, args[0], false)
	}),
}

func setFollowing(ctx context.Context, a *app, userID string, follow bool) error {
	t, err := settle(a.profile.SetFollowing(ctx, userID, follow))
	if err != nil {
		return err
	}
	return printToggle("following", "followers", t)
}
