// Package featureflags evaluates rollout flags parsed from configuration.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

type flagKind int

const (
	kindOff flagKind = iota
	kindOn
	kindRollout
)

type flag struct {
	kind flagKind
	pct  int
}

// Manager evaluates feature flags defined as a comma-separated list, e.g.
// "feed_stream=on,new_ranking=25%,legacy_sort=off".
type Manager struct {
	flags map[string]flag
}

// NewManager parses the raw flag list. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	flags := make(map[string]flag)

	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = normalize(name)
		value = normalize(value)
		if name == "" || value == "" {
			continue
		}

		switch value {
		case "on", "true", "1":
			flags[name] = flag{kind: kindOn}
		case "off", "false", "0":
			flags[name] = flag{kind: kindOff}
		default:
			pctRaw, isPct := strings.CutSuffix(value, "%")
			if !isPct {
				continue
			}
			pct, err := strconv.Atoi(pctRaw)
			if err != nil || pct < 0 || pct > 100 {
				continue
			}
			flags[name] = flag{kind: kindRollout, pct: pct}
		}
	}

	return &Manager{flags: flags}
}

// Enabled reports whether a flag is on for the given user. Unknown flags
// fall back to def, so features can default on without being configured.
func (m *Manager) Enabled(name string, userID uint, def bool) bool {
	if m == nil {
		return def
	}

	f, ok := m.flags[normalize(name)]
	if !ok {
		return def
	}

	switch f.kind {
	case kindOn:
		return true
	case kindRollout:
		if f.pct >= 100 {
			return true
		}
		// Percentage rollouts need a stable identity to bucket on.
		if f.pct <= 0 || userID == 0 {
			return false
		}
		return rolloutBucket(name, userID) < f.pct
	default:
		return false
	}
}

// Snapshot returns every configured flag evaluated for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID, false)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// rolloutBucket deterministically maps a (flag, user) pair onto [0,100).
func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
