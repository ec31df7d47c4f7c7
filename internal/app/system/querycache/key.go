package querycache

import (
	"strconv"
	"strings"
	"time"
)

// Key identifies one cached query: a fixed namespace tuple (joined into
// Scope) plus the query's parameters. Keys are comparable and safe to use
// as map keys. Two keys with the same Scope are siblings: issuing one
// cancels an in-flight background revalidation of the other.
type Key struct {
	Scope string
	Limit int
}

// NewKey builds a key from namespace parts, e.g. NewKey("dashboard", "stats").
func NewKey(namespace ...string) Key {
	return Key{Scope: strings.Join(namespace, "/")}
}

// WithLimit returns a copy of k carrying a limit parameter.
func (k Key) WithLimit(limit int) Key {
	k.Limit = limit
	return k
}

// String renders the key, e.g. "dashboard/recent-contacts?limit=5".
func (k Key) String() string {
	if k.Limit == 0 {
		return k.Scope
	}
	return k.Scope + "?limit=" + strconv.Itoa(k.Limit)
}

// Policy controls how long an entry is served without revalidation and
// whether a window-focus signal revalidates it.
type Policy struct {
	StaleTime         time.Duration
	RevalidateOnFocus bool
}
