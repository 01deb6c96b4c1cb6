package cmd

import (
	"github.com/pixelfolio/cli/pkg/feed"
	"github.com/pixelfolio/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	galleryCategory string
	gallerySort     string
	gallerySearch   string
	galleryPage     int
)

var galleryCmd = &cobra.Command{
	Use:     "gallery",
	Aliases: []string{"g"},
	Short:   "Browse the portfolio gallery",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List portfolios",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newGalleryService()
		if err != nil {
			return err
		}
		defer svc.Close()
		return svc.List(cmd.Context(), galleryPage)
	},
}

var galleryBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the gallery interactively",
	Long: `Browse the gallery page by page. Like, view and open portfolios by
their list number, and change category, sort order or search on the fly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newGalleryService()
		if err != nil {
			return err
		}
		return svc.Browse(cmd.Context())
	},
}

var galleryLikeCmd = &cobra.Command{
	Use:   "like <portfolio-id>",
	Short: "Like or unlike a portfolio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewGalleryService(service.DefaultDeps(), feed.DefaultParams())
		defer svc.Close()
		return svc.Like(cmd.Context(), args[0])
	},
}

var galleryWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the gallery and follow live like and view counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newGalleryService()
		if err != nil {
			return err
		}
		return svc.Watch(cmd.Context())
	},
}

func newGalleryService() (*service.GalleryService, error) {
	category, err := feed.ParseCategory(galleryCategory)
	if err != nil {
		return nil, err
	}
	sort, err := feed.ParseSortKey(gallerySort)
	if err != nil {
		return nil, err
	}
	params := feed.Params{Category: category, Sort: sort, Search: gallerySearch}
	return service.NewGalleryService(service.DefaultDeps(), params), nil
}

func init() {
	for _, c := range []*cobra.Command{galleryListCmd, galleryBrowseCmd, galleryWatchCmd} {
		c.Flags().StringVarP(&galleryCategory, "category", "c", "", "Category filter (e.g. \"Web Design\", \"UI/UX\")")
		c.Flags().StringVarP(&gallerySort, "sort", "s", "newest", "Sort order: newest, mostLiked, mostViewed")
		c.Flags().StringVarP(&gallerySearch, "search", "q", "", "Search text")
	}
	galleryListCmd.Flags().IntVar(&galleryPage, "page", 1, "Load pages 1 through this page")

	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryBrowseCmd)
	galleryCmd.AddCommand(galleryLikeCmd)
	galleryCmd.AddCommand(galleryWatchCmd)
}
