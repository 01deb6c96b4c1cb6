// Package feed keeps a paginated, filterable gallery list in sync with the
// backend: optimistic likes with rollback, stale-response discarding and
// debounced view pings.
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/pixelfolio/cli/pkg/api"
)

// Category is a gallery filter. The empty Category means all categories.
type Category string

const (
	CategoryAll            Category = ""
	CategoryWebDesign      Category = "Web Design"
	CategoryUIUX           Category = "UI/UX"
	CategoryBranding       Category = "Branding"
	CategoryPhotography    Category = "Photography"
	CategoryIllustration   Category = "Illustration"
	CategoryAppDevelopment Category = "App Development"
	CategoryGraphics       Category = "Graphics"
)

// Categories lists every concrete category in display order
var Categories = []Category{
	CategoryWebDesign,
	CategoryUIUX,
	CategoryBranding,
	CategoryPhotography,
	CategoryIllustration,
	CategoryAppDevelopment,
	CategoryGraphics,
}

// ParseCategory matches a category name case-insensitively. "" and "all"
// select every category.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return CategoryAll, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return CategoryAll, fmt.Errorf("unknown category %q", s)
}

func (c Category) String() string {
	if c == CategoryAll {
		return "All"
	}
	return string(c)
}

// SortKey orders the gallery
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortMostLiked  SortKey = "mostLiked"
	SortMostViewed SortKey = "mostViewed"
)

// SortKeys lists the accepted sort keys
var SortKeys = []SortKey{SortNewest, SortMostLiked, SortMostViewed}

// ParseSortKey accepts the wire names case-insensitively
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortNewest, nil
	}
	for _, k := range SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return SortNewest, fmt.Errorf("unknown sort key %q (want newest, mostLiked or mostViewed)", s)
}

// Params are the active list parameters. Every fetch is tagged with the
// Params it was issued under.
type Params struct {
	Category Category
	Sort     SortKey
	Search   string
}

// DefaultParams is every category, newest first, no search
func DefaultParams() Params {
	return Params{Sort: SortNewest}
}

func (p Params) query(page, limit int) api.ListQuery {
	return api.ListQuery{
		Page:        page,
		Limit:       limit,
		Category:    string(p.Category),
		SortBy:      string(p.Sort),
		SearchQuery: p.Search,
	}
}

// Creator is the denormalized creator shown on a card
type Creator struct {
	Name   string
	Avatar string
}

// Summary is one gallery card
type Summary struct {
	ID            string
	Title         string
	ThumbnailURL  string
	Category      Category
	Creator       Creator
	LikesCount    int
	ViewsCount    int
	IsLikedByUser bool
	// IsLikeLoading is set only while a like request for this entry is in flight
	IsLikeLoading bool
	CreatedAt     time.Time
}

// FromPortfolio converts a wire portfolio into a card
func FromPortfolio(p api.Portfolio) Summary {
	likes := p.LikesCount
	if likes < 0 {
		likes = 0
	}
	views := p.ViewsCount
	if views < 0 {
		views = 0
	}
	return Summary{
		ID:            p.Key(),
		Title:         p.Title,
		ThumbnailURL:  p.ThumbnailURL,
		Category:      Category(p.Category),
		Creator:       Creator{Name: p.Creator.Name, Avatar: string(p.Creator.Avatar)},
		LikesCount:    likes,
		ViewsCount:    views,
		IsLikedByUser: p.IsLikedByUser,
		CreatedAt:     p.CreatedAt,
	}
}

func fromPortfolios(ps []api.Portfolio) []Summary {
	out := make([]Summary, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromPortfolio(p))
	}
	return out
}

// State is a point-in-time copy of the list
type State struct {
	Items   []Summary
	Page    int
	Params  Params
	HasMore bool
	// Generation changes on every reset or parameter change
	Generation uint64
}

// Mode selects how a fetched page is applied
type Mode int

const (
	ModeReset Mode = iota
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeReset:
		return "reset"
	case ModeAppend:
		return "append"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}
