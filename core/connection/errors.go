package connection

import (
	"fmt"
	"sort"
	"strings"
)

// ConnectionError reports a failed connection validation. It carries both
// port ids and a details map describing which validation paths were
// attempted and why each failed.
type ConnectionError struct {
	SourceID string
	TargetID string
	Reason   string
	Details  map[string]string
}

func (e *ConnectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot connect port %s to port %s: %s", e.SourceID, e.TargetID, e.Reason)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Details[k])
		}
		b.WriteString(")")
	}
	return b.String()
}
