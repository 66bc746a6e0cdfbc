package cmd

import (
	"context"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/client"
	"github.com/aditya-makadiya/sociofeed/pkg/config"
	"github.com/aditya-makadiya/sociofeed/pkg/credentials"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/notify"
	"github.com/aditya-makadiya/sociofeed/pkg/result"
	"github.com/aditya-makadiya/sociofeed/pkg/service"
	"github.com/aditya-makadiya/sociofeed/pkg/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// app holds the client state shared by one command invocation
type app struct {
	client  *api.Client
	store   *store.Store
	auth    *service.AuthService
	feed    *service.FeedService
	posts   *service.PostService
	profile *service.ProfileService
}

func newApp() (*app, error) {
	// stderr keeps --output json pipeable
	n := notify.NewConsole(color.Error)
	c, err := api.New(client.OptionsFromConfig(), api.WithNotifier(n))
	if err != nil {
		return nil, err
	}

	st := store.New()

	a := &app{
		client: c,
		store:  st,
		auth:   service.NewAuthService(c, st, credentials.Default(), n),
		feed:   service.NewFeedService(c, st, n, config.GetInt("feed.page_size")),
		posts:  service.NewPostService(c, st, n, config.GetInt("comments.limit")),
		profile: service.NewProfileService(c, st, n, service.ProfileOptions{
			PageSize:       config.GetInt("follow.page_size"),
			SearchPageSize: config.GetInt("search.page_size"),
			AvatarSize:     config.GetInt("avatar.size"),
			AvatarMaxBytes: config.GetInt64("avatar.max_bytes"),
		}),
	}

	if r := a.auth.Restore(); !r.IsOk() {
		logger.Warn("Could not restore session", "error", r.Error())
	}
	return a, nil
}

// requireLogin fails unless a session was restored
func (a *app) requireLogin() (*api.User, error) {
	u := a.store.Auth().User
	if u == nil {
		return nil, errors.New(errors.KindAuth, "You are not logged in", nil).
			WithSuggestion("Run 'sociofeed auth login' first.")
	}
	return u, nil
}

// settle unwraps a dispatcher result; failures were already shown by the notifier
func settle[T any](r result.Result[T]) (T, error) {
	v, err := r.Unwrap()
	if err != nil {
		return v, reported{err: err}
	}
	return v, nil
}

// withApp builds the app and, when auth is set, requires a session
func withApp(auth bool, fn func(ctx context.Context, a *app, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if auth {
			if _, err := a.requireLogin(); err != nil {
				return err
			}
		}
		return fn(cmd.Context(), a, args)
	}
}
