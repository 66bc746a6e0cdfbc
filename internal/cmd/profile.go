package cmd

import (
	"context"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/aditya-makadiya/sociofeed/pkg/pagination"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/spf13/cobra"
)

var (
	profilePages    int
	profileUsername string
	profileBio      string
	profileBioSet   bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile commands",
	Long:  "View profiles, their posts and social graph, and edit your own",
}

// subject returns the user named in args, or the signed-in user
func (a *app) subject(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.store.Auth().User.ID
}

var showProfileCmd = &cobra.Command{
	Use:   "show [userId]",
	Short: "Show a profile (yours by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		p, err := settle(a.profile.GetProfile(ctx, a.subject(args)))
		if err != nil {
			return err
		}
		return output.PrintProfile(p)
	}),
}

var profilePostsCmd = &cobra.Command{
	Use:   "posts [userId]",
	Short: "List a user's posts",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		id := a.subject(args)
		first := func(ctx context.Context) result.Result[pagination.Cursor[api.Post]] { return a.profile.LoadPosts(ctx, id) }
		cur, err := pager[api.Post]{first, a.profile.LoadMorePosts}.load(ctx, profilePages)
		if err != nil {
			return err
		}
		return output.PrintPosts("Posts", cur.Items, cur.HasMore)
	}),
}

var followersCmd = &cobra.Command{
	Use:   "followers [userId]",
	Short: "List a user's followers",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		id := a.subject(args)
		first := func(ctx context.Context) result.Result[pagination.Cursor[api.UserSummary]] { return a.profile.LoadFollowers(ctx, id) }
		cur, err := pager[api.UserSummary]{first, a.profile.LoadMoreFollowers}.load(ctx, profilePages)
		if err != nil {
			return err
		}
		return output.PrintUsers("Followers", cur.Items, cur.HasMore)
	}),
}

var followingCmd = &cobra.Command{
	Use:   "following [userId]",
	Short: "List who a user follows",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		id := a.subject(args)
		first := func(ctx context.Context) result.Result[pagination.Cursor[api.UserSummary]] { return a.profile.LoadFollowing(ctx, id) }
		cur, err := pager[api.UserSummary]{first, a.profile.LoadMoreFollowing}.load(ctx, profilePages)
		if err != nil {
			return err
		}
		return output.PrintUsers("Following", cur.Items, cur.HasMore)
	}),
}

var editProfileCmd = &cobra.Command{
	Use:   "edit",
	Short: "Update your username or bio",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		me := a.store.Auth().User
		req := api.UpdateProfileRequest{Username: profileUsername, Bio: me.Bio}
		if profileBioSet {
			req.Bio = profileBio
		}
		p, err := settle(a.profile.UpdateProfile(ctx, me.ID, req))
		if err != nil {
			return err
		}
		return output.PrintProfile(p)
	}),
}

func init() {
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(profilePostsCmd)
	profileCmd.AddCommand(followersCmd)
	profileCmd.AddCommand(followingCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(searchUsersCmd)

	for _, c := range []*cobra.Command{profilePostsCmd, followersCmd, followingCmd, searchUsersCmd} {
		c.Flags().IntVar(&profilePages, "pages", 1, "Number of pages to load")
	}
	editProfileCmd.Flags().StringVar(&profileUsername, "username", "", "New username")
	editProfileCmd.PreRun = func(cmd *cobra.Command, args []string) {
		profileBioSet = cmd.Flags().Changed("bio")
	}
	editProfileCmd.Flags().StringVar(&profileBio, "bio", "", "New bio (an empty value clears it)")
}
