package catalog

import "sort"

// GroupByCategory partitions refs by Category. Each group is sorted by
// byte-wise string comparison.
func GroupByCategory(refs []string) map[string][]string {
	groups := make(map[string][]string)
	for _, ref := range refs {
		dirname := Category(ref)
		groups[dirname] = append(groups[dirname], ref)
	}
	for _, files := range groups {
		sort.Strings(files)
	}
	return groups
}

// SortedCategories returns the keys of groups in ascending order.
func SortedCategories(groups map[string][]string) []string {
	dirnames := make([]string, 0, len(groups))
	for dirname := range groups {
		dirnames = append(dirnames, dirname)
	}
	sort.Strings(dirnames)
	return dirnames
}
