package feedsync

// Reducers are pure transformations over an item snapshot. They are
// id-keyed and idempotent so poller results, broadcast events and user
// mutations can arrive in any interleaving.

// mergeCreated inserts item at the head unless its id is already
// present. A duplicate arrival is a no-op.
func mergeCreated(items []Item, item Item) []Item {
	for i := range items {
		if items[i].ID == item.ID {
			return items
		}
	}
	out := make([]Item, 0, len(items)+1)
	out = append(out, item)
	out = append(out, items...)
	return out
}

// patchUpdated applies patch to the item with the given id. A miss is a
// silent no-op.
func patchUpdated(items []Item, id string, patch Patch) []Item {
	for i := range items {
		if items[i].ID != id {
			continue
		}
		out := make([]Item, len(items))
		copy(out, items)
		out[i] = applyPatch(out[i], patch)
		return out
	}
	return items
}

// removeDeleted filters out the item with the given id. A miss is a
// silent no-op, so applying the same deletion twice is safe.
func removeDeleted(items []Item, id string) []Item {
	for i := range items {
		if items[i].ID != id {
			continue
		}
		out := make([]Item, 0, len(items)-1)
		out = append(out, items[:i]...)
		out = append(out, items[i+1:]...)
		return out
	}
	return items
}

// appendPage appends fetched items in arrival order, skipping ids the
// list already holds (an item can arrive via both a poll merge and
// explicit pagination).
func appendPage(items []Item, page []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		seen[items[i].ID] = struct{}{}
	}
	out := items
	for _, it := range page {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

func applyPatch(it Item, p Patch) Item {
	if p.Body != nil {
		it.Body = *p.Body
	}
	if p.MediaURLs != nil {
		it.MediaURLs = *p.MediaURLs
	}
	if p.Location != nil {
		it.Location = *p.Location
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.LikeCount != nil {
		it.LikeCount = clampCount(*p.LikeCount)
	}
	if p.CommentCount != nil {
		it.CommentCount = clampCount(*p.CommentCount)
	}
	if p.ShareCount != nil {
		it.ShareCount = clampCount(*p.ShareCount)
	}
	if p.UpdatedAt != nil {
		it.UpdatedAt = *p.UpdatedAt
	}
	return it
}

// clampCount floors a counter at zero. Optimistic decrements must never
// display a negative count.
func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
