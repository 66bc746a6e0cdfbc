package cmd

import (
	"context"

	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/aditya-makadiya/sociofeed/pkg/prompter"
	"github.com/spf13/cobra"
)

var (
	commentPage int
	commentYes  bool
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage comments on posts",
	Long:  "List, add, edit and delete comments",
}

var listCommentsCmd = &cobra.Command{
	Use:   "list <postId>",
	Short: "List a post's comments",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		page, err := settle(a.posts.LoadComments(ctx, args[0], commentPage))
		if err != nil {
			return err
		}
		return output.PrintComments(page.Comments, page.Total)
	}),
}

var addCommentCmd = &cobra.Command{
	Use:   "add <postId> [text]",
	Short: "Comment on a post",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		content, err := textArg(args, 1)
		if err != nil {
			return err
		}
		_, err = settle(a.posts.AddComment(ctx, args[0], content))
		return err
	}),
}

var editCommentCmd = &cobra.Command{
	Use:   "edit <postId> <commentId> [text]",
	Short: "Edit one of your comments",
	Args:  cobra.RangeArgs(2, 3),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		content, err := textArg(args, 2)
		if err != nil {
			return err
		}
		_, err = settle(a.posts.UpdateComment(ctx, args[0], args[1], content))
		return err
	}),
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete <postId> <commentId>",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		if !commentYes {
			ok, err := prompter.PromptConfirm("Delete this comment?")
			if err != nil || !ok {
				return err
			}
		}
		_, err := settle(a.posts.DeleteComment(ctx, args[0], args[1]))
		return err
	}),
}

// textArg returns args[i], prompting for it when absent
func textArg(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return prompter.PromptMultilineString("Comment", 20)
}

func init() {
	commentCmd.AddCommand(listCommentsCmd)
	commentCmd.AddCommand(addCommentCmd)
	commentCmd.AddCommand(editCommentCmd)
	commentCmd.AddCommand(deleteCommentCmd)

	listCommentsCmd.Flags().IntVar(&commentPage, "page", 1, "Page number")
	deleteCommentCmd.Flags().BoolVarP(&commentYes, "yes", "y", false, "Skip the confirmation prompt")
}
