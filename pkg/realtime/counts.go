package realtime

import (
	json "github.com/json-iterator/go"
	"github.com/pixelfolio/cli/pkg/feed"
	"github.com/pixelfolio/cli/pkg/logger"
)

// CountUpdate is the payload of like and view count events
type CountUpdate struct {
	PortfolioID string `json:"portfolioId"`
	LikesCount  *int   `json:"likesCount,omitempty"`
	ViewsCount  *int   `json:"viewsCount,omitempty"`
}

// BindStore patches count events into store. Like counts are skipped for
// entries with a like request in flight; the request's answer wins.
// onChange, if set, is called with the id of each patched entry.
func BindStore(c *Client, store *feed.Store, onChange func(id string)) {
	apply := func(ev Event) {
		var u CountUpdate
		if err := json.Unmarshal(ev.Payload, &u); err != nil || u.PortfolioID == "" {
			logger.Debug("Ignoring malformed count update", "type", ev.Type, "error", err)
			return
		}

		changed := false
		store.Patch(u.PortfolioID, func(s feed.Summary) feed.Summary {
			if u.LikesCount != nil && !s.IsLikeLoading && s.LikesCount != *u.LikesCount {
				s.LikesCount = *u.LikesCount
				changed = true
			}
			if u.ViewsCount != nil && s.ViewsCount != *u.ViewsCount {
				s.ViewsCount = *u.ViewsCount
				changed = true
			}
			return s
		})
		if changed && onChange != nil {
			onChange(u.PortfolioID)
		}
	}

	c.On(EventLikeCountUpdate, apply)
	c.On(EventViewCountUpdate, apply)
}
