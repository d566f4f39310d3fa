package analysis

import "strconv"

// Labels is the per-kind fresh-label allocator spec.md §4.D names:
// `if_N`, `elif_N`, `else_N`, `loop_N`, `end_N`.
type Labels struct {
	counters map[string]int
}

func (l *Labels) fresh(kind string) string {
	if l.counters == nil {
		l.counters = make(map[string]int)
	}
	n := l.counters[kind]
	l.counters[kind] = n + 1
	return kind + "_" + strconv.Itoa(n)
}

func (c *Context) freshLabel(kind string) string { return c.labels.fresh(kind) }
