package service

import (
	"context"
	"fmt"

	"github.com/pixelfolio/cli/pkg/api"
	"github.com/pixelfolio/cli/pkg/auth"
	"github.com/pixelfolio/cli/pkg/client"
	"github.com/pixelfolio/cli/pkg/config"
	"github.com/pixelfolio/cli/pkg/credentials"
	clierrors "github.com/pixelfolio/cli/pkg/errors"
	"github.com/pixelfolio/cli/pkg/feed"
	"golang.org/x/sync/errgroup"
)

// maxParallelUploads bounds concurrent image uploads
const maxParallelUploads = 4

// Deps are the collaborators every service needs
type Deps struct {
	API     *api.Client
	Session credentials.Session
	Images  *api.ImageHost
	// Notifier defaults to the terminal notifier
	Notifier feed.Notifier
}

// DefaultDeps wires services to the process-wide client and session
func DefaultDeps() Deps {
	return Deps{
		API:     api.Default(),
		Session: client.GetSession(),
		Images: api.NewImageHost(client.NewUploadClient(),
			config.GetString("upload.cloud_name"),
			config.GetString("upload.preset")),
	}
}

func (d Deps) guard() *auth.SessionGuard {
	return auth.NewSessionGuard(d.session())
}

func (d Deps) session() credentials.Session {
	if d.Session == nil {
		return credentials.Anonymous()
	}
	return d.Session
}

// requireAuth rejects the action up front for logged-out sessions
func (d Deps) requireAuth(action string) error {
	if !d.session().Authenticated() {
		return clierrors.AuthRequiredError(action)
	}
	return nil
}

// uploadImages uploads paths concurrently and returns their URLs in input order
func uploadImages(ctx context.Context, host *api.ImageHost, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if host == nil || !host.Configured() {
		return nil, clierrors.NewCLIError(clierrors.ErrorTypeValidation, "Image uploads are not configured", nil).
			WithSuggestion("Set upload.cloud_name and upload.preset in config.toml.")
	}

	urls := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			u, err := host.Upload(ctx, p)
			if err != nil {
				return err
			}
			urls[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
