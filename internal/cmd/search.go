package cmd

import (
	"context"
	"strings"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/spf13/cobra"
)

var searchUsersCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search users by username",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		query := strings.Join(args, " ")
		first := func(ctx context.Context) result.Result[pagination.Cursor[api.UserSummary]] {
			return a.profile.Search(ctx, query)
		}
		cur, err := pager[api.UserSummary]{first, a.profile.LoadMoreSearch}.load(ctx, profilePages)
		if err != nil {
			return err
		}
		return output.PrintUsers("Users matching \""+query+"\"", cur.Items, cur.HasMore)
	}),
}
