package feed

import (
	"testing"
	"time"

	"github.com/pixelfolio/cli/pkg/api"
	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	testCases := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"", CategoryAll, false},
		{"all", CategoryAll, false},
		{"web design", CategoryWebDesign, false},
		{"UI/UX", CategoryUIUX, false},
		{"app development", CategoryAppDevelopment, false},
		{" Graphics ", CategoryGraphics, false},
		{"sculpture", CategoryAll, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCategory(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("mostliked")
	assert.NoError(t, err)
	assert.Equal(t, SortMostLiked, k)

	k, err = ParseSortKey("")
	assert.NoError(t, err)
	assert.Equal(t, SortNewest, k)

	_, err = ParseSortKey("oldest")
	assert.Error(t, err)
}

func TestFromPortfolio(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := FromPortfolio(api.Portfolio{
		MongoID:       "p1",
		Title:         "Brand kit",
		ThumbnailURL:  "https://cdn/t.png",
		Category:      "Branding",
		Creator:       api.Creator{Name: "Ann", Avatar: "https://cdn/a.png"},
		LikesCount:    -2,
		ViewsCount:    30,
		IsLikedByUser: true,
		CreatedAt:     created,
	})

	assert.Equal(t, Summary{
		ID:            "p1",
		Title:         "Brand kit",
		ThumbnailURL:  "https://cdn/t.png",
		Category:      CategoryBranding,
		Creator:       Creator{Name: "Ann", Avatar: "https://cdn/a.png"},
		LikesCount:    0,
		ViewsCount:    30,
		IsLikedByUser: true,
		CreatedAt:     created,
	}, s)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "All", CategoryAll.String())
	assert.Equal(t, "UI/UX", CategoryUIUX.String())
	assert.Equal(t, "append", ModeAppend.String())
}
