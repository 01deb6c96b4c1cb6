package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pixelfolio/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	createOpts service.CreateOptions
	updateOpts service.UpdateOptions

	// --image 2=path.png
	replaceImageFlags []string
	deleteForce       bool
)

var portfolioCmd = &cobra.Command{
	Use:     "portfolio",
	Aliases: []string{"pf"},
	Short:   "Publish and manage portfolios",
}

var portfolioShowCmd = &cobra.Command{
	Use:   "show <portfolio-id>",
	Short: "Show a portfolio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewPortfolioService(service.DefaultDeps())
		return svc.Show(cmd.Context(), args[0])
	},
}

var portfolioCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new portfolio",
	Long: `Publish a new portfolio. Images are uploaded to the configured image
host first. Required values missing from the flags are prompted for.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewPortfolioService(service.DefaultDeps())
		_, err := svc.Create(cmd.Context(), createOpts)
		return err
	},
}

var portfolioUpdateCmd = &cobra.Command{
	Use:   "update <portfolio-id>",
	Short: "Edit one of your portfolios",
	Long: `Edit one of your portfolios. Only the values you pass change. Replace a
gallery image by position with --image 2=new.png, add images with --add-image,
or run with --interactive to be prompted for every field.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, err := parseImageReplacements(replaceImageFlags)
		if err != nil {
			return err
		}
		opts := updateOpts
		opts.ReplaceImages = replace

		svc := service.NewPortfolioService(service.DefaultDeps())
		_, err = svc.Update(cmd.Context(), args[0], opts)
		return err
	},
}

var portfolioDeleteCmd = &cobra.Command{
	Use:   "delete <portfolio-id>",
	Short: "Delete one of your portfolios",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewPortfolioService(service.DefaultDeps())
		return svc.Delete(cmd.Context(), args[0], deleteForce)
	},
}

var portfolioMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your portfolios with their likes and views",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewPortfolioService(service.DefaultDeps())
		return svc.Mine(cmd.Context())
	},
}

// parseImageReplacements reads "position=path" pairs
func parseImageReplacements(values []string) (map[int]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(values))
	for _, v := range values {
		pos, path, ok := strings.Cut(v, "=")
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if !ok || err != nil || path == "" {
			return nil, fmt.Errorf("invalid --image %q, want position=file (e.g. 2=shot.png)", v)
		}
		out[n] = path
	}
	return out, nil
}

func init() {
	f := portfolioCreateCmd.Flags()
	f.StringVar(&createOpts.Title, "title", "", "Portfolio title")
	f.StringVar(&createOpts.Description, "description", "", "Description")
	f.StringVar(&createOpts.Category, "category", "", "Category (e.g. \"Branding\")")
	f.StringVar(&createOpts.Thumbnail, "thumbnail", "", "Cover image file")
	f.StringSliceVar(&createOpts.Images, "image", nil, "Gallery image file (repeatable)")
	f.StringVar(&createOpts.Preview, "preview", "", "Live preview link")
	f.StringVar(&createOpts.Source, "source", "", "Source code link")

	u := portfolioUpdateCmd.Flags()
	u.StringVar(&updateOpts.Title, "title", "", "New title")
	u.StringVar(&updateOpts.Description, "description", "", "New description")
	u.StringVar(&updateOpts.Category, "category", "", "New category")
	u.StringVar(&updateOpts.Thumbnail, "thumbnail", "", "Replace the cover image")
	u.StringArrayVar(&replaceImageFlags, "image", nil, "Replace a gallery image: position=file (repeatable)")
	u.StringSliceVar(&updateOpts.AddImages, "add-image", nil, "Append a gallery image file (repeatable)")
	u.StringVar(&updateOpts.Preview, "preview", "", "New live preview link")
	u.StringVar(&updateOpts.Source, "source", "", "New source code link")
	u.BoolVarP(&updateOpts.Interactive, "interactive", "i", false, "Prompt for every field")

	portfolioDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip the confirmation prompt")

	portfolioCmd.AddCommand(portfolioShowCmd)
	portfolioCmd.AddCommand(portfolioCreateCmd)
	portfolioCmd.AddCommand(portfolioUpdateCmd)
	portfolioCmd.AddCommand(portfolioDeleteCmd)
	portfolioCmd.AddCommand(portfolioMineCmd)
}
