package cmd

import (
	"context"
	"os"

	"github.com/aditya-makadiya/sociofeed/pkg/avatar"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/spf13/cobra"
)

var avatarCrop string

var avatarCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Change your profile picture",
}

var setAvatarCmd = &cobra.Command{
	Use:   "set <image>",
	Short: "Upload a new avatar",
	Long: `Upload a new avatar. The image is cropped to a square (or to --crop,
given as x,y,width,height in source pixels), scaled and sent as JPEG.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var crop *avatar.Rect
		if avatarCrop != "" {
			r, err := avatar.ParseRect(avatarCrop)
			if err != nil {
				return err
			}
			crop = &r
		}

		p, err := settle(a.profile.UpdateAvatar(ctx, a.store.Auth().User.ID, data, crop))
		if err != nil {
			return err
		}
		return output.PrintProfile(p)
	}),
}

var resetAvatarCmd = &cobra.Command{
	Use:   "reset",
	Short: "Go back to the default avatar",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		_, err := settle(a.profile.ResetAvatar(ctx, a.store.Auth().User.ID))
		return err
	}),
}

func init() {
	avatarCmd.AddCommand(setAvatarCmd)
	avatarCmd.AddCommand(resetAvatarCmd)

	setAvatarCmd.Flags().StringVar(&avatarCrop, "crop", "", "Crop area as x,y,width,height")
}
