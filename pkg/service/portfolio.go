package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pixelfolio/cli/pkg/api"
	clierrors "github.com/pixelfolio/cli/pkg/errors"
	"github.com/pixelfolio/cli/pkg/feed"
	"github.com/pixelfolio/cli/pkg/formatter"
	"github.com/pixelfolio/cli/pkg/output"
	"github.com/pixelfolio/cli/pkg/prompter"
)

// PortfolioService manages the user's own portfolios
type PortfolioService struct {
	deps Deps
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(d Deps) *PortfolioService {
	return &PortfolioService{deps: d}
}

// CreateOptions carries values given as flags; missing required ones are prompted
type CreateOptions struct {
	Title       string
	Description string
	Category    string
	Thumbnail   string
	Images      []string
	Preview     string
	Source      string
}

// UpdateOptions lists the changes to apply. Empty fields are kept.
type UpdateOptions struct {
	Title       string
	Description string
	Category    string
	Preview     string
	Source      string
	// Thumbnail replaces the cover image
	Thumbnail string
	// ReplaceImages maps a 1-based gallery position to a new file
	ReplaceImages map[int]string
	// AddImages are appended to the gallery
	AddImages []string
	// Interactive prompts for every text field with the current value as default
	Interactive bool
}

// Show prints one portfolio. The backend counts this as a view.
func (s *PortfolioService) Show(ctx context.Context, id string) error {
	p, err := s.deps.API.GetPortfolio(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			return clierrors.NotFoundError("portfolio", id)
		}
		return s.deps.guard().Check(err)
	}
	return formatter.PrintPortfolio(p)
}

// Create uploads the images and publishes a new portfolio
func (s *PortfolioService) Create(ctx context.Context, opts CreateOptions) (*api.Portfolio, error) {
	if err := s.deps.requireAuth("create a portfolio"); err != nil {
		return nil, err
	}
	if err := fillCreateOptions(&opts); err != nil {
		return nil, err
	}

	category, err := feed.ParseCategory(opts.Category)
	if err != nil || category == feed.CategoryAll {
		return nil, clierrors.ValidationError("category", "must be one of "+categoryList())
	}
	for _, link := range []struct{ field, value string }{{"preview", opts.Preview}, {"source", opts.Source}} {
		if err := checkLink(link.field, link.value); err != nil {
			return nil, err
		}
	}

	files := append([]string{opts.Thumbnail}, opts.Images...)
	for _, f := range files {
		if err := checkImageFile(f); err != nil {
			return nil, err
		}
	}

	formatter.PrintInfo("Uploading %s...", pluralize(len(files), "image"))
	urls, err := uploadImages(ctx, s.deps.Images, files)
	if err != nil {
		return nil, fmt.Errorf("image upload failed: %w", err)
	}

	sess := s.deps.session()
	in := api.PortfolioInput{
		Title:        opts.Title,
		Description:  opts.Description,
		Category:     string(category),
		ThumbnailURL: urls[0],
		ImageURLs:    urls[1:],
		Preview:      opts.Preview,
		Source:       opts.Source,
		CreatorID:    sess.UserID(),
		Creator:      &api.Creator{Name: sess.DisplayName()},
	}
	if in.ImageURLs == nil {
		in.ImageURLs = []string{}
	}

	p, err := s.deps.API.CreatePortfolio(ctx, in)
	if err != nil {
		return nil, s.deps.guard().Check(err)
	}
	formatter.PrintSuccess("✓ Portfolio %q published (%s)", p.Title, p.Key())
	return p, nil
}

func fillCreateOptions(opts *CreateOptions) error {
	var err error
	if opts.Title == "" {
		if opts.Title, err = prompter.PromptRequired("Title: "); err != nil {
			return err
		}
	}
	if opts.Description == "" {
		if opts.Description, err = prompter.PromptMultilineString("Description (optional)", 20); err != nil {
			return err
		}
	}
	if opts.Category == "" {
		options := make([]string, len(feed.Categories))
		for i, c := range feed.Categories {
			options[i] = string(c)
		}
		idx, err := prompter.PromptSelect("Category", options)
		if err != nil {
			return err
		}
		opts.Category = options[idx]
	}
	if opts.Thumbnail == "" {
		if opts.Thumbnail, err = prompter.PromptRequired("Thumbnail image file: "); err != nil {
			return err
		}
	}
	if opts.Preview == "" {
		if opts.Preview, err = prompter.PromptRequired("Live preview link: "); err != nil {
			return err
		}
	}
	if opts.Source == "" {
		if opts.Source, err = prompter.PromptRequired("Source code link: "); err != nil {
			return err
		}
	}
	return nil
}

// Update edits a portfolio the caller owns. Images that are not replaced
// keep their URLs.
func (s *PortfolioService) Update(ctx context.Context, id string, opts UpdateOptions) (*api.Portfolio, error) {
	if err := s.deps.requireAuth("update a portfolio"); err != nil {
		return nil, err
	}
	guard := s.deps.guard()

	current, err := s.deps.API.GetPortfolio(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, clierrors.NotFoundError("portfolio", id)
		}
		return nil, guard.Check(err)
	}
	if owner := s.deps.session().UserID(); current.CreatorID != "" && current.CreatorID != owner {
		return nil, clierrors.ForbiddenError()
	}

	in := api.PortfolioInput{
		Title:        current.Title,
		Description:  current.Description,
		Category:     current.Category,
		ThumbnailURL: current.ThumbnailURL,
		ImageURLs:    append([]string{}, current.ImageURLs...),
		Preview:      current.Preview,
		Source:       current.Source,
		CreatorID:    current.CreatorID,
	}

	if opts.Interactive {
		if err := promptPortfolioFields(&in); err != nil {
			return nil, err
		}
	}
	if err := applyFieldChanges(&in, opts); err != nil {
		return nil, err
	}

	if err := s.replaceImages(ctx, &in, opts); err != nil {
		return nil, err
	}

	p, err := s.deps.API.UpdatePortfolio(ctx, id, in)
	if err != nil {
		return nil, guard.Check(err)
	}
	formatter.PrintSuccess("✓ Portfolio %q updated", p.Title)
	return p, nil
}

func promptPortfolioFields(in *api.PortfolioInput) error {
	var err error
	if in.Title, err = prompter.PromptDefault("Title", in.Title); err != nil {
		return err
	}
	if in.Description, err = prompter.PromptDefault("Description", in.Description); err != nil {
		return err
	}
	if in.Category, err = prompter.PromptDefault("Category", in.Category); err != nil {
		return err
	}
	if in.Preview, err = prompter.PromptDefault("Live preview link", in.Preview); err != nil {
		return err
	}
	in.Source, err = prompter.PromptDefault("Source code link", in.Source)
	return err
}

func applyFieldChanges(in *api.PortfolioInput, opts UpdateOptions) error {
	if opts.Title != "" {
		in.Title = opts.Title
	}
	if opts.Description != "" {
		in.Description = opts.Description
	}
	if opts.Category != "" {
		in.Category = opts.Category
	}
	if opts.Preview != "" {
		in.Preview = opts.Preview
	}
	if opts.Source != "" {
		in.Source = opts.Source
	}

	if strings.TrimSpace(in.Title) == "" {
		return clierrors.ValidationError("title", "cannot be empty")
	}
	category, err := feed.ParseCategory(in.Category)
	if err != nil || category == feed.CategoryAll {
		return clierrors.ValidationError("category", "must be one of "+categoryList())
	}
	in.Category = string(category)
	if err := checkLink("preview", in.Preview); err != nil {
		return err
	}
	return checkLink("source", in.Source)
}

// replaceImages uploads the new files in one batch and splices the URLs in
func (s *PortfolioService) replaceImages(ctx context.Context, in *api.PortfolioInput, opts UpdateOptions) error {
	// position 0 is the thumbnail, -1 appends to the gallery
	var (
		files     []string
		positions []int
	)
	if opts.Thumbnail != "" {
		files = append(files, opts.Thumbnail)
		positions = append(positions, 0)
	}
	for pos, f := range opts.ReplaceImages {
		if pos < 1 || pos > len(in.ImageURLs) {
			return clierrors.ValidationError("image", fmt.Sprintf("no gallery image #%d (have %d)", pos, len(in.ImageURLs)))
		}
		files = append(files, f)
		positions = append(positions, pos)
	}
	for _, f := range opts.AddImages {
		files = append(files, f)
		positions = append(positions, -1)
	}
	if len(files) == 0 {
		return nil
	}
	for _, f := range files {
		if err := checkImageFile(f); err != nil {
			return err
		}
	}

	formatter.PrintInfo("Uploading %s...", pluralize(len(files), "image"))
	urls, err := uploadImages(ctx, s.deps.Images, files)
	if err != nil {
		return fmt.Errorf("image upload failed: %w", err)
	}
	for i, pos := range positions {
		switch {
		case pos == 0:
			in.ThumbnailURL = urls[i]
		case pos > 0:
			in.ImageURLs[pos-1] = urls[i]
		default:
			in.ImageURLs = append(in.ImageURLs, urls[i])
		}
	}
	return nil
}

// Delete removes a portfolio after confirmation unless force is set
func (s *PortfolioService) Delete(ctx context.Context, id string, force bool) error {
	if err := s.deps.requireAuth("delete a portfolio"); err != nil {
		return err
	}
	if !force {
		confirm, err := prompter.PromptConfirm(fmt.Sprintf("Delete portfolio %s? This cannot be undone.", id))
		if err != nil {
			return err
		}
		if !confirm {
			formatter.PrintInfo("Cancelled")
			return nil
		}
	}

	if err := s.deps.API.DeletePortfolio(ctx, id, s.deps.session().UserID()); err != nil {
		switch {
		case api.IsNotFound(err):
			return clierrors.NotFoundError("portfolio", id)
		case api.IsForbidden(err):
			return clierrors.ForbiddenError()
		}
		return s.deps.guard().Check(err)
	}
	formatter.PrintSuccess("✓ Portfolio deleted")
	return nil
}

// Mine lists the caller's portfolios with their totals
func (s *PortfolioService) Mine(ctx context.Context) error {
	if err := s.deps.requireAuth("list your portfolios"); err != nil {
		return err
	}
	profile, err := s.deps.API.GetProfile(ctx)
	if err != nil {
		return s.deps.guard().Check(err)
	}

	rows := make([][]string, 0, len(profile.Portfolios))
	for i, p := range profile.Portfolios {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			formatter.Truncate(p.Title, 40),
			p.Category,
			fmt.Sprintf("%d", p.LikesCount),
			fmt.Sprintf("%d", p.ViewsCount),
			p.Key(),
		})
	}
	title := fmt.Sprintf("%s's portfolios", profile.Name)
	if err := output.PrintList(title, profile.Portfolios, []string{"#", "TITLE", "CATEGORY", "LIKES", "VIEWS", "ID"}, rows); err != nil {
		return err
	}
	if output.GetOutputFormat() != output.FormatJSON {
		formatter.PrintInfo("%s, %s, %s",
			pluralize(len(profile.Portfolios), "portfolio"),
			pluralize(profile.TotalLikes(), "like"),
			pluralize(profile.TotalViews(), "view"))
	}
	return nil
}

func checkLink(field, value string) error {
	if value == "" {
		return clierrors.ValidationError(field, "link is required")
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return clierrors.ValidationError(field, "must be an http(s) URL")
	}
	return nil
}

func categoryList() string {
	names := make([]string, len(feed.Categories))
	for i, c := range feed.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
