// Package feedsync keeps a per-view copy of the activity feed consistent
// across initial load, pagination, background polling for unseen items,
// optimistic like/save mutations, and broadcast events pushed from the
// server. Each Feed instance owns its own item list; consistency across
// views is a higher-level concern.
package feedsync
