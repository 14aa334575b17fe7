package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// joinSorted renders strings sorted case-insensitively, or "[none]".
func joinSorted(items []string) string {
	if len(items) == 0 {
		return "[none]"
	}
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})
	return strings.Join(sorted, " ")
}

// joinKV renders a string map as sorted "key=value" pairs, or "[none]".
func joinKV(m map[string]string) string {
	if len(m) == 0 {
		return "[none]"
	}
	keys := lo.Keys(m)
	sort.Strings(keys)
	pairs := lo.Map(keys, func(k string, _ int) string {
		return fmt.Sprintf("%s=%s", k, m[k])
	})
	return strings.Join(pairs, " ")
}
