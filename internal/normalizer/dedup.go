package normalizer

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

type releaseKey struct {
	title  string
	tracks int
}

// normalizeTitle case-folds title and collapses its whitespace.
//
// A [cases.Caser] is stateful, so callers pass their own.
func normalizeTitle(c cases.Caser, title string) string {
	return strings.Join(strings.Fields(c.String(title)), " ")
}

// dedupIndices returns the indices of releases to keep, in first-occurrence order.
//
// Releases sharing a normalized title and track count collapse to one: an explicit release
// replaces a clean one, a clean release never replaces an explicit one, and otherwise the
// release with strictly more metadata tags wins.
func dedupIndices(releases []rawRelease) []int {
	folder := cases.Fold()
	slot := make(map[releaseKey]int, len(releases))
	kept := make([]int, 0, len(releases))

	for i, r := range releases {
		key := releaseKey{title: normalizeTitle(folder, r.title()), tracks: r.trackCount()}
		s, seen := slot[key]
		if !seen {
			slot[key] = len(kept)
			kept = append(kept, i)
			continue
		}

		existing := releases[kept[s]]
		switch {
		case r.explicit() && !existing.explicit():
			kept[s] = i
		case !r.explicit() && existing.explicit():
		case r.tagCount() > existing.tagCount():
			kept[s] = i
		}
	}
	return kept
}

func dedup(releases []rawRelease) []rawRelease {
	kept := dedupIndices(releases)
	out := make([]rawRelease, 0, len(kept))
	for _, i := range kept {
		out = append(out, releases[i])
	}
	return out
}

// DedupReleases collapses duplicate release variants in a list of raw proxy items.
func DedupReleases(items []json.RawMessage) []json.RawMessage {
	releases := make([]rawRelease, len(items))
	for i, item := range items {
		decode(item, &releases[i])
	}

	kept := dedupIndices(releases)
	out := make([]json.RawMessage, 0, len(kept))
	for _, i := range kept {
		out = append(out, items[i])
	}
	return out
}
