package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pixelfolio/cli/pkg/api"
	"github.com/pixelfolio/cli/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isProbe(q api.ListQuery) bool {
	return q.Limit == DefaultProbeLimit
}

func TestLoad_ResetThenAppend(t *testing.T) {
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		return &api.PortfolioListResponse{Success: true, Data: portfolios(string(rune('a'+q.Page-1)), 12)}, nil
	}}
	store := NewStore(12, Params{Category: CategoryWebDesign, Sort: SortNewest})
	c := NewCoordinator(store, backend, credentials.Anonymous(), CoordinatorOptions{})
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, ModeReset))
	assert.Equal(t, 12, store.Len())
	assert.True(t, store.HasMore())

	require.NoError(t, c.Load(ctx, ModeAppend))
	assert.Equal(t, 24, store.Len())
	assert.True(t, store.HasMore())
	assert.Equal(t, 2, store.Page())

	got := ids(store.Snapshot().Items)
	assert.Equal(t, "a1", got[0])
	assert.Equal(t, "a12", got[11])
	assert.Equal(t, "b1", got[12])
	assert.Equal(t, "b12", got[23])

	want := []api.ListQuery{
		{Page: 1, Limit: 12, Category: "Web Design", SortBy: "newest"},
		{Page: 2, Limit: 12, Category: "Web Design", SortBy: "newest"},
	}
	if diff := cmp.Diff(want, backend.Queries()); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ShortPageEndsPaging(t *testing.T) {
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		if q.Page == 1 {
			return &api.PortfolioListResponse{Data: portfolios("a", 12)}, nil
		}
		return &api.PortfolioListResponse{Data: portfolios("b", 3)}, nil
	}}
	store := NewStore(12, DefaultParams())
	c := NewCoordinator(store, backend, nil, CoordinatorOptions{})
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, ModeReset))
	require.NoError(t, c.LoadMore(ctx))
	assert.Equal(t, 15, store.Len())
	assert.False(t, store.HasMore())

	require.NoError(t, c.LoadMore(ctx))
	assert.Len(t, backend.Queries(), 2, "no request once the last page was short")
}

func TestLoad_PrimaryFailureLeavesStore(t *testing.T) {
	fail := false
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		if fail {
			return nil, &api.APIError{StatusCode: 500, Message: "boom"}
		}
		return &api.PortfolioListResponse{Data: portfolios("a", 12)}, nil
	}}
	store := NewStore(12, DefaultParams())
	rec := &Recorder{}
	c := NewCoordinator(store, backend, nil, CoordinatorOptions{Notifier: rec})
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, ModeReset))
	before := store.Snapshot()

	fail = true
	assert.Error(t, c.Load(ctx, ModeAppend))
	assert.Equal(t, before, store.Snapshot())
	assert.Error(t, c.Load(ctx, ModeReset))
	assert.Equal(t, before, store.Snapshot())
	assert.True(t, store.HasMore())
	assert.Equal(t, 2, rec.Count(NoticeError))
}

func TestRefine_FailureLeavesStore(t *testing.T) {
	fail := false
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		if fail {
			return nil, &api.APIError{StatusCode: 500, Message: "boom"}
		}
		return &api.PortfolioListResponse{Data: portfolios(q.SortBy, 12)}, nil
	}}
	store := NewStore(12, DefaultParams())
	rec := &Recorder{}
	c := NewCoordinator(store, backend, nil, CoordinatorOptions{Notifier: rec})
	ctx := context.Background()

	require.NoError(t, c.Load(ctx, ModeReset))
	before := store.Snapshot()

	fail = true
	assert.Error(t, c.Refine(ctx, Params{Category: CategoryBranding, Sort: SortMostLiked}))
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, DefaultParams(), store.Params())
	assert.True(t, store.HasMore())
	assert.Equal(t, 1, rec.Count(NoticeError))

	fail = false
	require.NoError(t, c.Refine(ctx, Params{Category: CategoryBranding, Sort: SortMostLiked}))
	assert.Equal(t, Params{Category: CategoryBranding, Sort: SortMostLiked}, store.Params())
	assert.Equal(t, "mostLiked1", store.Snapshot().Items[0].ID)
	assert.NotEqual(t, before.Generation, store.Generation())
}

func TestRefine_KeepsListVisibleWhileLoading(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		if q.Category == string(CategoryGraphics) {
			entered <- struct{}{}
			<-release
		}
		return &api.PortfolioListResponse{Data: portfolios(q.Category, 3)}, nil
	}}
	store := NewStore(12, DefaultParams())
	c := NewCoordinator(store, backend, nil, CoordinatorOptions{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, ModeReset))
	before := store.Snapshot()

	done := make(chan error, 1)
	go func() { done <- c.Refine(ctx, Params{Category: CategoryGraphics, Sort: SortNewest}) }()
	<-entered

	assert.Equal(t, before, store.Snapshot())
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, CategoryGraphics, store.Params().Category)
	assert.Equal(t, []string{"Graphics1", "Graphics2", "Graphics3"}, ids(store.Snapshot().Items))
}

func TestLoad_StaleResetDiscarded(t *testing.T) {
	slowEntered := make(chan struct{})
	slowRelease := make(chan struct{})
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		if q.Category == string(CategoryBranding) {
			slowEntered <- struct{}{}
			<-slowRelease
			return &api.PortfolioListResponse{Data: portfolios("old", 12)}, nil
		}
		return &api.PortfolioListResponse{Data: portfolios("new", 4)}, nil
	}}
	store := NewStore(12, Params{Category: CategoryBranding, Sort: SortNewest})
	rec := &Recorder{}
	c := NewCoordinator(store, backend, nil, CoordinatorOptions{Notifier: rec})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Load(ctx, ModeReset) }()
	<-slowEntered

	require.NoError(t, c.Refine(ctx, Params{Category: CategoryPhotography, Sort: SortNewest}))
	after := store.Snapshot()

	close(slowRelease)
	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.Equal(t, after, store.Snapshot())
	assert.Equal(t, []string{"new1", "new2", "new3", "new4"}, ids(store.Snapshot().Items))
	assert.Empty(t, rec.Notices(), "stale responses are never surfaced")
}

func TestLoad_OutOfOrderResetsSameParams(t *testing.T) {
	firstEntered := make(chan struct{})
	firstRelease := make(chan struct{})
	calls := 0
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		calls++
		if calls == 1 {
			firstEntered <- struct{}{}
			<-firstRelease
			return &api.PortfolioListResponse{Data: portfolios("first", 2)}, nil
		}
		return &api.PortfolioListResponse{Data: portfolios("second", 2)}, nil
	}}
	store := NewStore(12, DefaultParams())
	c := NewCoordinator(store, backend, nil, CoordinatorOptions{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Load(ctx, ModeReset) }()
	<-firstEntered

	require.NoError(t, c.Load(ctx, ModeReset))
	close(firstRelease)

	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.Equal(t, []string{"second1", "second2"}, ids(store.Snapshot().Items))
}

func TestLoad_StaleAppendAfterReset(t *testing.T) {
	appendEntered := make(chan struct{})
	appendRelease := make(chan struct{})
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		if q.Page == 2 {
			appendEntered <- struct{}{}
			<-appendRelease
			return &api.PortfolioListResponse{Data: portfolios("late", 12)}, nil
		}
		return &api.PortfolioListResponse{Data: portfolios(q.SortBy, 12)}, nil
	}}
	store := NewStore(12, DefaultParams())
	c := NewCoordinator(store, backend, nil, CoordinatorOptions{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx, ModeReset))

	done := make(chan error, 1)
	go func() { done <- c.Load(ctx, ModeAppend) }()
	<-appendEntered

	require.NoError(t, c.Refine(ctx, Params{Sort: SortMostLiked}))
	after := store.Snapshot()
	close(appendRelease)

	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.Equal(t, after, store.Snapshot())
	assert.Equal(t, 12, store.Len())
	assert.Equal(t, "mostLiked1", store.Snapshot().Items[0].ID)
}

func TestLoad_EnrichesLikedState(t *testing.T) {
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		if isProbe(q) {
			ps := portfolios("a", 3)
			ps[1].IsLikedByUser = true
			ps = append(ps, api.Portfolio{MongoID: "elsewhere", IsLikedByUser: true})
			return &api.PortfolioListResponse{Data: ps}, nil
		}
		return &api.PortfolioListResponse{Data: portfolios("a", 5)}, nil
	}}
	store := NewStore(12, Params{Category: CategoryGraphics, Sort: SortMostViewed, Search: "x"})
	c := NewCoordinator(store, backend, credentials.Static("tok", "u1"), CoordinatorOptions{})

	require.NoError(t, c.Load(context.Background(), ModeReset))

	queries := backend.Queries()
	require.Len(t, queries, 2)
	assert.Equal(t, api.ListQuery{Page: 1, Limit: 100, SortBy: "newest"}, queries[1])

	liked := map[string]bool{}
	for _, item := range store.Snapshot().Items {
		liked[item.ID] = item.IsLikedByUser
	}
	assert.Equal(t, map[string]bool{"a1": false, "a2": true, "a3": false, "a4": false, "a5": false}, liked)
	_, found := store.Get("elsewhere")
	assert.False(t, found, "probe must not add entries")
}

func TestLoad_ProbeFailureIsSilent(t *testing.T) {
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		if isProbe(q) {
			return nil, errors.New("probe exploded")
		}
		return &api.PortfolioListResponse{Data: portfolios("a", 12)}, nil
	}}
	store := NewStore(12, DefaultParams())
	rec := &Recorder{}
	c := NewCoordinator(store, backend, credentials.Static("tok", "u1"), CoordinatorOptions{Notifier: rec})

	require.NoError(t, c.Load(context.Background(), ModeReset))
	assert.Equal(t, 12, store.Len())
	assert.Empty(t, rec.Notices())
}

func TestLoad_AnonymousSkipsProbe(t *testing.T) {
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		return &api.PortfolioListResponse{Data: portfolios("a", 2)}, nil
	}}
	c := NewCoordinator(NewStore(12, DefaultParams()), backend, credentials.Anonymous(), CoordinatorOptions{})

	require.NoError(t, c.Load(context.Background(), ModeReset))
	assert.Len(t, backend.Queries(), 1)
}

func TestLoad_ProbeSkipsPendingLikes(t *testing.T) {
	likes := &fakeLikes{
		result:  &api.LikeResult{LikesCount: 1, IsLikedByUser: true},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	backend := &fakeList{respond: func(q api.ListQuery) (*api.PortfolioListResponse, error) {
		ps := portfolios("a", 2)
		if isProbe(q) {
			ps[0].IsLikedByUser = false
			ps[1].IsLikedByUser = true
		}
		return &api.PortfolioListResponse{Data: ps}, nil
	}}
	sess := credentials.Static("tok", "u1")
	store := NewStore(12, DefaultParams())
	store.Reset([]Summary{summary("a1", 0, false)})
	r := NewLikeReconciler(store, likes, sess, nil, nil)
	c := NewCoordinator(store, backend, sess, CoordinatorOptions{Likes: r})

	done := make(chan error, 1)
	go func() { done <- r.ToggleLike(context.Background(), "a1") }()
	<-likes.entered

	require.NoError(t, c.Load(context.Background(), ModeReset))
	a2, _ := store.Get("a2")
	assert.True(t, a2.IsLikedByUser)

	close(likes.release)
	require.NoError(t, <-done)
	a1, _ := store.Get("a1")
	assert.True(t, a1.IsLikedByUser, "server confirmation lands after the probe")
}

func TestLoad_UnknownMode(t *testing.T) {
	c := NewCoordinator(NewStore(12, DefaultParams()), &fakeList{}, nil, CoordinatorOptions{})
	assert.Error(t, c.Load(context.Background(), Mode(7)))
}
