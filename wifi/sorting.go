package wifi

import "sort"

// SortAccessPoints sorts a slice of AccessPoint structs in place.
// The sorting order is:
// 1. The associated network first.
// 2. Descending signal strength.
// 3. Fallback to SSID alphabetically.
func SortAccessPoints(aps []AccessPoint) {
	sort.SliceStable(aps, func(i, j int) bool {
		a := aps[i]
		b := aps[j]

		if a.InUse != b.InUse {
			return a.InUse
		}
		if a.Signal != b.Signal {
			return a.Signal > b.Signal
		}
		return a.SSID < b.SSID
	})
}

// DedupeAccessPoints collapses multi-channel duplicates: entries sharing an
// SSID are reduced to one, except that the associated entry is never the one
// removed. The input must already be sorted by SortAccessPoints so that the
// strongest (or associated) entry of each SSID comes first.
func DedupeAccessPoints(aps []AccessPoint) []AccessPoint {
	seen := make(map[string]bool, len(aps))
	out := aps[:0]
	for _, ap := range aps {
		if seen[ap.SSID] && !ap.InUse {
			continue
		}
		seen[ap.SSID] = true
		out = append(out, ap)
	}
	return out
}
