package cmd

import (
	"context"

	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/aditya-makadiya/sociofeed/pkg/service"
	"github.com/spf13/cobra"
)

var likePostCmd = &cobra.Command{
	Use:   "like <postId>",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		t, err := settle(a.posts.ToggleLike(ctx, args[0]))
		if err != nil {
			return err
		}
		return printToggle("liked", "likes", t)
	}),
}

var savePostCmd = &cobra.Command{
	Use:   "save <postId>",
	Short: "Save or unsave a post",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		t, err := settle(a.posts.ToggleSave(ctx, args[0]))
		if err != nil {
			return err
		}
		return printToggle("saved", "", t)
	}),
}

// printToggle shows the settled state; text output already got a notification
func printToggle(state, counter string, t service.Toggle) error {
	if output.GetOutputFormat() == output.FormatText {
		return nil
	}
	record := map[string]interface{}{state: t.On}
	if counter != "" {
		record[counter] = t.Count
	}
	return output.PrintRecord("", record)
}
