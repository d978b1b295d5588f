package ragmodel

import "sort"

// RankedList is an ordered sequence of RankedItems. Invariant: strictly
// descending by Score; ties are broken by ChunkID ascending so ordering
// is deterministic across identical inputs (spec.md §3, invariant 4 of
// §8).
type RankedList []RankedItem

// Sort normalizes the list in place to the invariant ordering: score
// descending, chunk_id ascending on ties.
func (l RankedList) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Score != l[j].Score {
			return l[i].Score > l[j].Score
		}
		return l[i].ChunkID < l[j].ChunkID
	})
}

// Sorted returns a sorted copy, leaving the receiver untouched.
func (l RankedList) Sorted() RankedList {
	out := make(RankedList, len(l))
	copy(out, l)
	out.Sort()
	return out
}

// Top returns at most k items from the front of a sorted list.
func (l RankedList) Top(k int) RankedList {
	if k < 0 || k > len(l) {
		k = len(l)
	}
	return l[:k]
}

// ChunkIDs returns the chunk ids in order, useful for de-duplication and
// set membership checks.
func (l RankedList) ChunkIDs() []string {
	ids := make([]string, len(l))
	for i, it := range l {
		ids[i] = it.ChunkID
	}
	return ids
}

// IsStrictlyOrdered reports whether the list already satisfies the
// RankedList invariant without needing a re-sort. Exercised directly by
// property tests (spec.md §8 invariant 4).
func (l RankedList) IsStrictlyOrdered() bool {
	for i := 1; i < len(l); i++ {
		prev, cur := l[i-1], l[i]
		if prev.Score < cur.Score {
			return false
		}
		if prev.Score == cur.Score && prev.ChunkID > cur.ChunkID {
			return false
		}
	}
	return true
}
