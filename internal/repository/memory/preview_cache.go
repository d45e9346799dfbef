package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// PreviewCache keeps the latest synthesized preview document per chat so
// switching chats serves the document without re-reading the store.
type PreviewCache struct {
	cache *cache.Cache
}

func NewPreviewCache() *PreviewCache {
	// Default expiration of 1 hour, purge sweep every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &PreviewCache{
		cache: c,
	}
}

func (r *PreviewCache) Save(chatId uuid.UUID, document string) {
	r.cache.Set(chatId.String(), document, cache.DefaultExpiration)
}

func (r *PreviewCache) Get(chatId uuid.UUID) (string, bool) {
	if x, found := r.cache.Get(chatId.String()); found {
		return x.(string), true
	}
	return "", false
}

func (r *PreviewCache) Delete(chatId uuid.UUID) {
	r.cache.Delete(chatId.String())
}
