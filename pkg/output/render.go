package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/api"
	"github.com/charmbracelet/lipgloss"
)

var (
	authorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7DC4E4"))

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	contentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CAD3F5"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)
)

// now is replaced in tests
var now = time.Now

// Ago renders t relative to now ("just now", "5m ago", "3d ago")
func Ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now().Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

func mark(on bool, label string) string {
	if on {
		return activeStyle.Render(label)
	}
	return label
}

// PostCard renders one post as a bordered card
func PostCard(p api.Post) string {
	var b strings.Builder
	b.WriteString(authorStyle.Render("@" + p.User.Username))
	if ago := Ago(p.CreatedAt); ago != "" {
		b.WriteString(" " + timestampStyle.Render(ago))
	}
	b.WriteString("\n")
	if p.Content != "" {
		b.WriteString(contentStyle.Render(p.Content) + "\n")
	}
	for _, img := range p.Images {
		b.WriteString(timestampStyle.Render("[image] "+img) + "\n")
	}
	b.WriteString(fmt.Sprintf("%s %d  comments %d  %s\n",
		mark(p.IsLiked, "likes"), p.LikeCount, p.CommentCount, mark(p.IsSaved, "saved")))
	b.WriteString(timestampStyle.Render("id " + p.ID))
	return cardStyle.Render(b.String())
}

// PostLine summarizes a post's counts on one line
func PostLine(p api.Post) string {
	return fmt.Sprintf("%s %q: %s %d, comments %d",
		authorStyle.Render("@"+p.User.Username), truncate(p.Content, 30),
		mark(p.IsLiked, "likes"), p.LikeCount, p.CommentCount)
}

// PrintPosts prints a post list; more reports whether another page exists
func PrintPosts(title string, posts []api.Post, more bool) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return printJSON(posts)
	case FormatTable:
		rows := make([][]string, 0, len(posts))
		for _, p := range posts {
			rows = append(rows, []string{
				p.ID,
				p.User.Username,
				truncate(p.Content, 40),
				strconv.Itoa(p.LikeCount),
				strconv.Itoa(p.CommentCount),
				yesNo(p.IsLiked),
				yesNo(p.IsSaved),
				Ago(p.CreatedAt),
			})
		}
		printTable([]string{"ID", "Author", "Content", "Likes", "Comments", "Liked", "Saved", "Posted"}, rows)
	default:
		if title != "" {
			bold.Fprintln(out, title)
		}
		if len(posts) == 0 {
			fmt.Fprintln(out, "No posts yet.")
		}
		for _, p := range posts {
			fmt.Fprintln(out, PostCard(p))
		}
	}
	if more && GetOutputFormat() != FormatJSON {
		PrintInfo("More posts available. Use --pages to load more.")
	}
	return nil
}

// PrintPost prints a single post
func PrintPost(p *api.Post) error {
	if GetOutputFormat() == FormatJSON {
		return printJSON(p)
	}
	fmt.Fprintln(out, PostCard(*p))
	return nil
}

// PrintComments prints a page of comments
func PrintComments(comments []api.Comment, total int) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return printJSON(map[string]interface{}{"comments": comments, "total": total})
	case FormatTable:
		rows := make([][]string, 0, len(comments))
		for _, c := range comments {
			rows = append(rows, []string{c.ID, c.User.Username, truncate(c.Content, 60), Ago(c.CreatedAt)})
		}
		printTable([]string{"ID", "Author", "Comment", "Posted"}, rows)
	default:
		bold.Fprintf(out, "Comments (%d)\n", total)
		if len(comments) == 0 {
			fmt.Fprintln(out, "No comments yet.")
		}
		for _, c := range comments {
			fmt.Fprintf(out, "%s %s\n  %s\n  %s\n",
				authorStyle.Render("@"+c.User.Username),
				timestampStyle.Render(Ago(c.CreatedAt)),
				c.Content,
				timestampStyle.Render("id "+c.ID))
		}
	}
	return nil
}

// PrintUsers prints a user list
func PrintUsers(title string, users []api.UserSummary, more bool) error {
	if GetOutputFormat() == FormatJSON {
		return printJSON(users)
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Username, yesNo(u.IsFollowing), truncate(u.Bio, 40)})
	}
	if err := PrintList(title, users, []string{"ID", "Username", "Following", "Bio"}, rows); err != nil {
		return err
	}
	if more {
		PrintInfo("More users available. Use --pages to load more.")
	}
	return nil
}

// PrintProfile prints a user's profile
func PrintProfile(p *api.Profile) error {
	if GetOutputFormat() == FormatJSON {
		return printJSON(p)
	}
	return PrintRecord("@"+p.Username, map[string]interface{}{
		"id":         p.ID,
		"bio":        p.Bio,
		"avatar":     p.Avatar,
		"followers":  p.FollowerCount,
		"following":  p.FollowingCount,
		"posts":      p.PostCount,
		"you follow": yesNo(p.IsFollowing),
	})
}

// PrintUser prints the signed-in user
func PrintUser(u *api.User) error {
	if GetOutputFormat() == FormatJSON {
		return printJSON(u)
	}
	return PrintRecord("Signed in as @"+u.Username, map[string]interface{}{
		"id":     u.ID,
		"email":  u.Email,
		"bio":    u.Bio,
		"active": u.IsActive,
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
