package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pixelfolio/cli/pkg/auth"
	"github.com/pixelfolio/cli/pkg/config"
	"github.com/pixelfolio/cli/pkg/feed"
	"github.com/pixelfolio/cli/pkg/formatter"
	"github.com/pixelfolio/cli/pkg/logger"
	"github.com/pixelfolio/cli/pkg/output"
	"github.com/pixelfolio/cli/pkg/prompter"
	"github.com/pixelfolio/cli/pkg/realtime"
)

// GalleryService browses the public gallery
type GalleryService struct {
	deps  Deps
	guard *auth.SessionGuard

	store *feed.Store
	coord *feed.Coordinator
	likes *feed.LikeReconciler
	views *feed.ViewTracker

	inflight sync.WaitGroup
}

// NewGalleryService builds the list machinery for params
func NewGalleryService(d Deps, params feed.Params) *GalleryService {
	if d.Notifier == nil {
		d.Notifier = formatter.Notifier{}
	}
	l := logger.With("gallery")
	sess := d.session()

	store := feed.NewStore(config.GetInt("gallery.page_size"), params)
	likes := feed.NewLikeReconciler(store, d.API, sess, d.Notifier, l)
	coord := feed.NewCoordinator(store, d.API, sess, feed.CoordinatorOptions{
		ProbeLimit: config.GetInt("gallery.likes_probe_limit"),
		Likes:      likes,
		Notifier:   d.Notifier,
		Logger:     l,
	})

	return &GalleryService{
		deps:  d,
		guard: d.guard(),
		store: store,
		coord: coord,
		likes: likes,
		views: feed.NewViewTracker(d.API, config.GetMillis("gallery.view_debounce_ms"), l),
	}
}

// Store exposes the list for rendering
func (s *GalleryService) Store() *feed.Store {
	return s.store
}

// Close sends pending view reports and waits for in-flight work
func (s *GalleryService) Close() {
	s.inflight.Wait()
	s.views.Flush()
	s.views.Close()
}

// List prints pages 1 through page of the gallery
func (s *GalleryService) List(ctx context.Context, page int) error {
	if err := s.coord.Load(ctx, feed.ModeReset); err != nil {
		return s.quiet(err)
	}
	for s.store.Page() < page && s.store.HasMore() {
		if err := s.coord.LoadMore(ctx); err != nil {
			return s.quiet(err)
		}
	}
	return formatter.PrintGallery(s.store.Snapshot())
}

// Like toggles a like on one portfolio by id
func (s *GalleryService) Like(ctx context.Context, id string) error {
	if s.store.Len() == 0 {
		// a bare entry avoids a GET, which would count a view
		s.store.Reset([]feed.Summary{{ID: id}})
	}
	if err := s.likes.ToggleLike(ctx, id); err != nil {
		return s.quiet(err)
	}

	item, _ := s.store.Get(id)
	if item.IsLikedByUser {
		formatter.PrintSuccess("♥ Liked %s (%s)", id, pluralize(item.LikesCount, "like"))
	} else {
		formatter.PrintSuccess("♡ Unliked %s (%s)", id, pluralize(item.LikesCount, "like"))
	}
	return nil
}

// Browse runs an interactive session over the gallery
func (s *GalleryService) Browse(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.Close()

	stopLive := s.startLive(ctx, nil)
	defer stopLive()

	if err := s.coord.Load(ctx, feed.ModeReset); err != nil {
		s.report(s.quiet(err))
	}
	if err := formatter.PrintGallery(s.store.Snapshot()); err != nil {
		return err
	}
	printBrowseHelp()

	for {
		line, err := prompter.PromptString("> ")
		if err != nil {
			return nil
		}
		quit, err := s.dispatch(ctx, line)
		if err != nil {
			s.report(err)
		}
		if quit {
			return nil
		}
	}
}

// dispatch runs one browse command and reports whether to quit
func (s *GalleryService) dispatch(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	case "h", "help", "?":
		printBrowseHelp()
		return false, nil
	case "p", "print", "ls":
		return false, formatter.PrintGallery(s.store.Snapshot())
	case "n", "more":
		if !s.store.HasMore() {
			formatter.PrintInfo("No more portfolios.")
			return false, nil
		}
		if err := s.coord.LoadMore(ctx); err != nil {
			return false, s.quiet(err)
		}
		return false, formatter.PrintGallery(s.store.Snapshot())
	case "r", "refresh":
		if err := s.coord.Load(ctx, feed.ModeReset); err != nil {
			return false, s.quiet(err)
		}
		return false, formatter.PrintGallery(s.store.Snapshot())
	case "l", "like":
		item, err := s.pick(arg)
		if err != nil {
			return false, err
		}
		s.toggleAsync(ctx, item)
		return false, nil
	case "v", "view":
		item, err := s.pick(arg)
		if err != nil {
			return false, err
		}
		s.views.Schedule(item.ID)
		printSummary(item)
		return false, nil
	case "o", "open":
		item, err := s.pick(arg)
		if err != nil {
			return false, err
		}
		p, err := s.deps.API.GetPortfolio(ctx, item.ID)
		if err != nil {
			return false, s.guard.Check(err)
		}
		return false, formatter.PrintPortfolio(p)
	case "c", "category":
		category, err := chooseCategory(arg)
		if err != nil {
			return false, err
		}
		p := s.store.Params()
		p.Category = category
		return false, s.refine(ctx, p)
	case "s", "sort":
		key, err := chooseSort(arg)
		if err != nil {
			return false, err
		}
		p := s.store.Params()
		p.Sort = key
		return false, s.refine(ctx, p)
	case "/", "search":
		p := s.store.Params()
		p.Search = arg
		return false, s.refine(ctx, p)
	default:
		if strings.HasPrefix(cmd, "/") {
			p := s.store.Params()
			p.Search = strings.TrimSpace(strings.TrimPrefix(line, "/"))
			return false, s.refine(ctx, p)
		}
		return false, fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
}

func (s *GalleryService) refine(ctx context.Context, p feed.Params) error {
	if err := s.coord.Refine(ctx, p); err != nil {
		return s.quiet(err)
	}
	return formatter.PrintGallery(s.store.Snapshot())
}

// toggleAsync sends the like in the background; the list shows the
// optimistic state until the answer arrives
func (s *GalleryService) toggleAsync(ctx context.Context, item feed.Summary) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		err := s.likes.ToggleLike(ctx, item.ID)
		switch {
		case err == nil:
			after, ok := s.store.Get(item.ID)
			if ok {
				formatter.PrintSuccess("%s %s", formatter.LikeCell(after), after.Title)
			}
		case errors.Is(err, feed.ErrLikePending):
			formatter.PrintWarning("Already updating %q", item.Title)
		default:
			s.report(s.quiet(err))
		}
	}()
}

// Watch prints the gallery and then live count changes until ctx ends
func (s *GalleryService) Watch(ctx context.Context) error {
	if config.GetString("realtime.url") == "" {
		return fmt.Errorf("realtime.url is not configured")
	}
	defer s.Close()

	if err := s.coord.Load(ctx, feed.ModeReset); err != nil {
		return s.quiet(err)
	}
	if err := formatter.PrintGallery(s.store.Snapshot()); err != nil {
		return err
	}
	formatter.PrintInfo("Watching for like and view changes. Press Ctrl+C to stop.")

	return s.runLive(ctx, func(id string) {
		if item, ok := s.store.Get(id); ok {
			fmt.Fprintf(output.Writer(), "%s  %s  views %d\n", formatter.Truncate(item.Title, 40), formatter.LikeCell(item), item.ViewsCount)
		}
	})
}

// startLive runs the realtime feed in the background when configured
func (s *GalleryService) startLive(ctx context.Context, onChange func(string)) func() {
	if config.GetString("realtime.url") == "" {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.runLive(ctx, onChange); err != nil {
			logger.Warn("Realtime updates stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (s *GalleryService) runLive(ctx context.Context, onChange func(string)) error {
	rt := realtime.NewClient(realtime.DefaultConfig(config.GetString("realtime.url")), s.deps.session())
	realtime.BindStore(rt, s.store, onChange)
	return rt.Run(ctx)
}

// pick resolves a 1-based list number or an id
func (s *GalleryService) pick(arg string) (feed.Summary, error) {
	if arg == "" {
		return feed.Summary{}, fmt.Errorf("which one? give a list number or id")
	}
	if n, err := strconv.Atoi(arg); err == nil {
		items := s.store.Snapshot().Items
		if n < 1 || n > len(items) {
			return feed.Summary{}, fmt.Errorf("no portfolio #%d on screen", n)
		}
		return items[n-1], nil
	}
	if item, ok := s.store.Get(arg); ok {
		return item, nil
	}
	return feed.Summary{}, fmt.Errorf("portfolio %s is not in the list", arg)
}

// quiet maps feed errors for the caller. Failures the notifier already
// printed become errShown; a rejected token goes through the session guard.
func (s *GalleryService) quiet(err error) error {
	switch {
	case err == nil, errors.Is(err, feed.ErrStaleResponse):
		return nil
	case errors.Is(err, feed.ErrLikePending), errors.Is(err, feed.ErrNotLoaded):
		return err
	case auth.IsSessionError(err):
		return s.guard.Check(err)
	default:
		return errShown
	}
}

func (s *GalleryService) report(err error) {
	if err == nil || errors.Is(err, errShown) {
		return
	}
	formatter.PrintCLIError(err)
}

// errShown marks a failure the user has already been told about
var errShown = errors.New("failed")

// IsShown reports whether err was already printed to the user
func IsShown(err error) bool {
	return errors.Is(err, errShown)
}

func chooseCategory(arg string) (feed.Category, error) {
	if arg != "" {
		return feed.ParseCategory(arg)
	}
	options := []string{"All"}
	for _, c := range feed.Categories {
		options = append(options, string(c))
	}
	idx, err := prompter.PromptSelect("Category", options)
	if err != nil {
		return feed.CategoryAll, err
	}
	if idx == 0 {
		return feed.CategoryAll, nil
	}
	return feed.Categories[idx-1], nil
}

func chooseSort(arg string) (feed.SortKey, error) {
	if arg != "" {
		return feed.ParseSortKey(arg)
	}
	options := make([]string, len(feed.SortKeys))
	for i, k := range feed.SortKeys {
		options[i] = string(k)
	}
	idx, err := prompter.PromptSelect("Sort by", options)
	if err != nil {
		return feed.SortNewest, err
	}
	return feed.SortKeys[idx], nil
}

func printSummary(item feed.Summary) {
	fmt.Fprintf(output.Writer(), "%s by %s  [%s]  %s  views %d\n  %s\n",
		formatter.Bold.Sprint(item.Title), item.Creator.Name, item.Category,
		formatter.LikeCell(item), item.ViewsCount, item.ThumbnailURL)
}

func printBrowseHelp() {
	fmt.Fprintln(output.Writer(), formatter.Dim.Sprint(
		"Commands: more | like N | view N | open N | category [name] | sort [key] | search TEXT | refresh | quit"))
}
