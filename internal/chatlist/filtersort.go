// Package chatlist derives filtered, sorted chat-list views from a user's
// conversation summaries. All functions are pure: inputs are never mutated
// and the same inputs always yield the same output.
package chatlist

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/homer-app/marketplace-platform/internal/model"
)

// SortKey selects the ordering of the chat list.
type SortKey string

const (
	// SortRecent orders by last-message time, newest first. Default.
	SortRecent SortKey = "recent"
	// SortUnread orders by unread count, highest first.
	SortUnread SortKey = "unread"
	// SortName orders by the other user's full name, ascending.
	SortName SortKey = "name"
)

// ParseSortKey maps a query-string value to a SortKey, defaulting to recent.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortUnread:
		return SortUnread
	case SortName:
		return SortName
	default:
		return SortRecent
	}
}

// Result describes the outcome of a FilterSort for the "N results" indicator.
type Result struct {
	Total    int
	Shown    int
	Filtered bool
}

// FilterSort filters conversations by a case-insensitive substring query over
// property title, other-user name, and last-message text, then sorts the
// survivors by key. The input slice is left untouched; both steps are stable,
// so conversations with equal sort keys keep their relative input order.
func FilterSort(convs []model.ConversationSummary, query string, key SortKey) ([]model.ConversationSummary, Result) {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]model.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		if q == "" || matches(c, q) {
			out = append(out, c)
		}
	}

	res := Result{
		Total:    len(convs),
		Shown:    len(out),
		Filtered: len(out) < len(convs),
	}

	switch key {
	case SortUnread:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UnreadCount > out[j].UnreadCount
		})
	case SortName:
		// Collators carry internal buffers, so build one per call rather
		// than sharing across goroutines.
		col := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(otherName(out[i]), otherName(out[j])) < 0
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return lastMessageTime(out[i]).After(lastMessageTime(out[j]))
		})
	}

	return out, res
}

func matches(c model.ConversationSummary, q string) bool {
	return strings.Contains(strings.ToLower(propertyTitle(c)), q) ||
		strings.Contains(strings.ToLower(otherName(c)), q) ||
		strings.Contains(strings.ToLower(lastMessageText(c)), q)
}

func propertyTitle(c model.ConversationSummary) string {
	if c.Property == nil {
		return ""
	}
	return c.Property.Title
}

func otherName(c model.ConversationSummary) string {
	if c.OtherUser == nil {
		return ""
	}
	return c.OtherUser.FullName
}

func lastMessageText(c model.ConversationSummary) string {
	if c.LastMessage == nil {
		return ""
	}
	return c.LastMessage.Message
}

// lastMessageTime parses LastMessageAt for the recent sort. Missing or
// unparsable timestamps map to the zero time, which sorts last under the
// newest-first ordering. Date-only values are accepted because older records
// carried them.
func lastMessageTime(c model.ConversationSummary) time.Time {
	if c.LastMessageAt == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, c.LastMessageAt); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", c.LastMessageAt); err == nil {
		return t
	}
	return time.Time{}
}
