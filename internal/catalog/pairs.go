package catalog

// NoWindow disables truncation in GeneratePairs.
const NoWindow = -1

type Pair[T any] struct {
	A T
	B T
}

// GeneratePairs emits both orientations of every pair (items[a], items[b])
// with a < b and b - a < window. A negative window pairs everything.
//
// For each a ascending and each b ascending, (a, b) is emitted immediately
// followed by (b, a).
func GeneratePairs[T any](items []T, window int) []Pair[T] {
	n := len(items)
	if window < 0 || window > n {
		window = n
	}

	var pairs []Pair[T]
	if window > 1 {
		pairs = make([]Pair[T], 0, pairCount(n, window))
	}
	for a := 0; a < n; a++ {
		upper := min(a+window, n)
		for b := a + 1; b < upper; b++ {
			pairs = append(pairs,
				Pair[T]{A: items[a], B: items[b]},
				Pair[T]{A: items[b], B: items[a]},
			)
		}
	}
	return pairs
}

func pairCount(n, window int) int {
	count := 0
	for a := 0; a < n; a++ {
		count += min(a+window, n) - a - 1
	}
	return 2 * count
}
