package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pixelfolio/cli/pkg/api"
	clierrors "github.com/pixelfolio/cli/pkg/errors"
	"github.com/pixelfolio/cli/pkg/feed"
	"github.com/pixelfolio/cli/pkg/output"
)

var (
	Bold    = color.New(color.Bold)
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Warning = color.New(color.FgYellow)
	Liked   = color.New(color.FgRed, color.Bold)
	Dim     = color.New(color.Faint)
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	output.PrintSuccess(format, args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	output.PrintError(format, args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	output.PrintInfo(format, args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	output.PrintWarning(format, args...)
}

// PrintCLIError prints an error with its category and suggestion
func PrintCLIError(err error) {
	fmt.Fprint(output.Writer(), Error.Sprint(clierrors.FormatError(err)))
}

// GalleryHeaders are the columns of a gallery listing
var GalleryHeaders = []string{"#", "TITLE", "CATEGORY", "CREATOR", "LIKES", "VIEWS", "ID"}

// LikeCell renders the like count with its state: a filled heart when
// liked and an ellipsis while a toggle is in flight
func LikeCell(s feed.Summary) string {
	mark := "♡"
	if s.IsLikedByUser {
		mark = "♥"
	}
	cell := mark + " " + strconv.Itoa(s.LikesCount)
	if s.IsLikeLoading {
		cell += " …"
	}
	if s.IsLikedByUser {
		return Liked.Sprint(cell)
	}
	return cell
}

// GalleryRows numbers items from 1 for the interactive commands
func GalleryRows(items []feed.Summary) [][]string {
	rows := make([][]string, 0, len(items))
	for i, s := range items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			Truncate(s.Title, 40),
			string(s.Category),
			Truncate(s.Creator.Name, 20),
			LikeCell(s),
			strconv.Itoa(s.ViewsCount),
			s.ID,
		})
	}
	return rows
}

// PrintGallery prints the list with a status line for the active filters
func PrintGallery(state feed.State) error {
	title := fmt.Sprintf("Gallery: %s, sorted by %s", state.Params.Category, state.Params.Sort)
	if state.Params.Search != "" {
		title += fmt.Sprintf(", matching %q", state.Params.Search)
	}
	if err := output.PrintList(title, state.Items, GalleryHeaders, GalleryRows(state.Items)); err != nil {
		return err
	}
	if output.GetOutputFormat() == output.FormatJSON {
		return nil
	}
	switch {
	case len(state.Items) == 0:
		PrintInfo("No portfolios found.")
	case state.HasMore:
		fmt.Fprintln(output.Writer(), Dim.Sprintf("Showing %d (page %d). More available.", len(state.Items), state.Page))
	default:
		fmt.Fprintln(output.Writer(), Dim.Sprintf("Showing all %d.", len(state.Items)))
	}
	return nil
}

// PrintPortfolio prints a portfolio's detail view
func PrintPortfolio(p *api.Portfolio) error {
	fields := []output.Field{
		{Key: "ID", Value: p.Key()},
		{Key: "Title", Value: p.Title},
		{Key: "Category", Value: p.Category},
		{Key: "Creator", Value: p.Creator.Name},
		{Key: "Likes", Value: p.LikesCount},
		{Key: "Views", Value: p.ViewsCount},
		{Key: "Thumbnail", Value: p.ThumbnailURL},
	}
	if p.Description != "" {
		fields = append(fields, output.Field{Key: "Description", Value: p.Description})
	}
	if p.Preview != "" {
		fields = append(fields, output.Field{Key: "Preview", Value: p.Preview})
	}
	if p.Source != "" {
		fields = append(fields, output.Field{Key: "Source", Value: p.Source})
	}
	for i, u := range p.ImageURLs {
		fields = append(fields, output.Field{Key: fmt.Sprintf("Image %d", i+1), Value: u})
	}
	if !p.CreatedAt.IsZero() {
		fields = append(fields, output.Field{Key: "Created", Value: FormatTime(p.CreatedAt)})
	}
	return output.PrintRecord(p.Title, p, fields)
}

// PrintUser prints an account record
func PrintUser(u *api.User) error {
	fields := []output.Field{
		{Key: "Name", Value: u.Name},
		{Key: "Email", Value: u.Email},
	}
	if u.Bio != "" {
		fields = append(fields, output.Field{Key: "Bio", Value: u.Bio})
	}
	if img := u.Image(); img != "" {
		fields = append(fields, output.Field{Key: "Avatar", Value: img})
	}
	if !u.CreatedAt.IsZero() {
		fields = append(fields, output.Field{Key: "Member since", Value: u.CreatedAt.Format("January 2006")})
	}
	return output.PrintRecord("Profile", u, fields)
}

// FormatTime renders a timestamp relative to now for recent times
func FormatTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Truncate shortens s to max runes with an ellipsis
func Truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// Notifier prints feed notices to the terminal
type Notifier struct{}

func (Notifier) Notify(n feed.Notice) {
	switch n.Kind {
	case feed.NoticeLoginRequired:
		PrintWarning("%s. Run 'pixelfolio auth login' first.", n.Message)
	case feed.NoticeError:
		if n.Err != nil {
			PrintError("%s: %s", n.Message, clierrors.CategorizeError(n.Err).Message)
		} else {
			PrintError("%s", n.Message)
		}
	default:
		PrintInfo("%s", n.Message)
	}
}
