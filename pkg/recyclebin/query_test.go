package recyclebin

import (
	"context"
	"testing"

	"recyclebin/pkg/meta"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	rec := meta.Record{OriginalName: "Report.PDF", OriginalPath: "/home/alice/docs/Report.PDF"}

	tests := []struct {
		name       string
		pattern    string
		ignoreCase bool
		want       bool
	}{
		{"SubstringName", "port", false, true},
		{"SubstringPath", "alice/docs", false, true},
		{"SubstringCaseMismatch", "report", false, false},
		{"SubstringIgnoreCase", "report", true, true},
		{"GlobWholeName", "*.PDF", false, true},
		{"GlobIsAnchored", "Rep*", false, true},
		{"GlobNoPartialMatch", "*.PD", false, false},
		{"GlobIgnoreCase", "*.pdf", true, true},
		{"GlobWholePath", "/home/*/docs/*", false, true},
		{"DoubleStar", "/home/**/*.PDF", false, true},
		{"SingleStarNoSlash", "/home/*.PDF", false, false},
		{"Alternation", "*.{pdf,PDF}", false, true},
		{"CharClass", "[RS]eport.PDF", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.pattern, tt.ignoreCase)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(rec))
		})
	}
}

func TestSearch(t *testing.T) {
	env := setupBin(t)
	ctx := context.Background()

	env.mustCapture(t,
		env.writeFile(t, "a.txt", "1"),
		env.writeFile(t, "b.log", "22"),
		env.writeFile(t, "sub/c.txt", "333"),
	)

	t.Run("Glob", func(t *testing.T) {
		hits, sum, err := env.bin.Search(ctx, "*.txt", SearchOptions{})
		require.NoError(t, err)
		assert.Len(t, hits, 2)
		assert.Equal(t, int64(4), sum.TotalSize)
	})

	t.Run("NoMatches", func(t *testing.T) {
		hits, sum, err := env.bin.Search(ctx, "*.go", SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, hits)
		assert.Zero(t, sum.Count)
	})

	t.Run("BadPattern", func(t *testing.T) {
		_, _, err := env.bin.Search(ctx, "[a-", SearchOptions{})
		assert.ErrorIs(t, err, ErrBadPattern)
	})

	t.Run("EmptyPattern", func(t *testing.T) {
		_, _, err := env.bin.Search(ctx, "  ", SearchOptions{})
		assert.ErrorIs(t, err, ErrBadPattern)
	})
}

func TestList_Empty(t *testing.T) {
	env := setupBin(t)
	records, sum, err := env.bin.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, Summary{}, sum)
}
