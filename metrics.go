package spindle

import "time"

// ResolveHook observes every top-level resolution. container is the name of
// the container that satisfied the request, empty on a miss.
type ResolveHook func(id, container string, duration time.Duration, err error)
