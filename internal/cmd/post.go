package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/aditya-makadiya/sociofeed/pkg/prompter"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var (
	postContent string
	postImages  []string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post commands",
	Long:  "Create, view, like and save posts",
}

var createPostCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new post",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		req := api.CreatePostRequest{Content: postContent}
		if req.Content == "" && len(postImages) == 0 {
			var err error
			if req.Content, err = prompter.PromptMultilineString("Content", 50); err != nil {
				return err
			}
		}
		for _, path := range postImages {
			up, err := readUpload(path)
			if err != nil {
				return err
			}
			req.Images = append(req.Images, up)
		}

		p, err := settle(a.feed.CreatePost(ctx, req))
		if err != nil {
			return err
		}
		return output.PrintPost(p)
	}),
}

var showPostCmd = &cobra.Command{
	Use:   "show <postId>",
	Short: "Show a single post",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		p, err := settle(a.posts.GetPost(ctx, args[0]))
		if err != nil {
			return err
		}
		return output.PrintPost(p)
	}),
}

func readUpload(path string) (api.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.Upload{}, err
	}
	return api.Upload{
		FileName:    filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

func init() {
	postCmd.AddCommand(createPostCmd)
	postCmd.AddCommand(showPostCmd)
	postCmd.AddCommand(likePostCmd)
	postCmd.AddCommand(savePostCmd)

	createPostCmd.Flags().StringVarP(&postContent, "content", "c", "", "Post text (prompted when empty and no image is given)")
	createPostCmd.Flags().StringSliceVarP(&postImages, "image", "i", nil, "Image file to attach (repeatable)")
}
