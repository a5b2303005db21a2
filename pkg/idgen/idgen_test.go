package idgen

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"recyclebin/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_RapidSuccessionUnique(t *testing.T) {
	g := New()
	seen := make(map[types.ID]struct{}, 10000)

	for range 10000 {
		id := g.Next()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestGenerator_FrozenClock(t *testing.T) {
	// 时钟冻结时依然要生成不同的 ID
	frozen := time.Unix(1700000000, 0)
	g := NewWithClock(77, func() time.Time { return frozen })

	a := g.Next()
	b := g.Next()
	c := g.Next()

	assert.Equal(t, types.ID(fmt.Sprintf("%d_77", frozen.UnixNano())), a)
	assert.Equal(t, types.ID(fmt.Sprintf("%d_77", frozen.UnixNano()+1)), b)
	assert.Equal(t, types.ID(fmt.Sprintf("%d_77", frozen.UnixNano()+2)), c)
}

func TestGenerator_ClockGoesBackwards(t *testing.T) {
	times := []time.Time{time.Unix(2000, 0), time.Unix(1000, 0)}
	i := 0
	g := NewWithClock(1, func() time.Time {
		t := times[i]
		i++
		return t
	})

	first := g.Next()
	second := g.Next()
	assert.NotEqual(t, first, second)
	assert.Equal(t, types.ID(fmt.Sprintf("%d_1", time.Unix(2000, 0).UnixNano()+1)), second)
}

func TestGenerator_ContainsPIDAndIsValid(t *testing.T) {
	id := New().Next()
	assert.True(t, id.IsValid())
	assert.True(t, strings.HasSuffix(id.String(), fmt.Sprintf("_%d", os.Getpid())))
}

func TestGenerator_Concurrent(t *testing.T) {
	g := New()
	var mu sync.Mutex
	seen := make(map[types.ID]struct{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				id := g.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8*500, len(seen))
}
