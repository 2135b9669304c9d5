package llm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

func TestCache(t *testing.T) {
	t.Run("basic operations", func(t *testing.T) {
		cache := NewCache(0)

		_, found := cache.Get("Joe's Cafe", "1 Main St")
		assert.False(t, found)

		want := model.Classification{Code: "4511", Title: "Cafes and Restaurants"}
		cache.Put("Joe's Cafe", "1 Main St", want)

		got, found := cache.Get("Joe's Cafe", "1 Main St")
		assert.True(t, found)
		assert.Equal(t, want, got)
		assert.Equal(t, 1, cache.Len())

		// Same name at another address is a distinct key.
		_, found = cache.Get("Joe's Cafe", "2 Main St")
		assert.False(t, found)

		cache.Clear()
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("overwrite keeps one entry", func(t *testing.T) {
		cache := NewCache(0)
		cache.Put("A", "x", model.Classification{Code: "1111"})
		cache.Put("A", "x", model.Classification{Code: "2222"})

		got, _ := cache.Get("A", "x")
		assert.Equal(t, "2222", got.Code)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("bounded cache evicts oldest insertion", func(t *testing.T) {
		cache := NewCache(2)
		cache.Put("A", "", model.Classification{Code: "1111"})
		cache.Put("B", "", model.Classification{Code: "2222"})
		cache.Put("C", "", model.Classification{Code: "3333"})

		assert.Equal(t, 2, cache.Len())
		_, found := cache.Get("A", "")
		assert.False(t, found)
		_, found = cache.Get("C", "")
		assert.True(t, found)
	})

	t.Run("concurrent access", func(t *testing.T) {
		cache := NewCache(0)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				name := string(rune('a' + i))
				cache.Put(name, "addr", model.Classification{Code: "4511"})
				_, _ = cache.Get(name, "addr")
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 20, cache.Len())
	})
}
