package chatlist

import (
	"sync"

	"github.com/homer-app/marketplace-platform/internal/model"
)

// View memoizes the last FilterSort computation for one user's chat list.
// The owner bumps a revision counter whenever the underlying conversations
// change; a Get with the same (revision, query, key) triple returns the
// cached slice without re-sorting. Correctness never depends on the cache:
// a miss simply recomputes.
type View struct {
	mu sync.Mutex

	revision uint64
	query    string
	key      SortKey
	valid    bool

	chats  []model.ConversationSummary
	result Result
}

// Get returns the filtered, sorted view of convs for the given revision.
func (v *View) Get(revision uint64, convs []model.ConversationSummary, query string, key SortKey) ([]model.ConversationSummary, Result) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.valid && v.revision == revision && v.query == query && v.key == key {
		return v.chats, v.result
	}

	chats, result := FilterSort(convs, query, key)
	v.revision = revision
	v.query = query
	v.key = key
	v.chats = chats
	v.result = result
	v.valid = true

	return chats, result
}

// Invalidate drops the cached view.
func (v *View) Invalidate() {
	v.mu.Lock()
	v.valid = false
	v.mu.Unlock()
}
