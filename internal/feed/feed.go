// Package feed holds the pure timeline-assembly logic: given already
// fetched candidate posts, filter out moderated ones, order by publish
// date, and cap to a page. It never touches the store, so every rule can
// be unit-tested on plain slices.
package feed

import (
	"sort"

	"github.com/ChadIImus/Devoops/internal/models"
)

// PageSize is the fixed timeline page length.
const PageSize = 30

// FetchFactor is the candidate-fetch multiplier read paths use so that a
// page can still be filled when some of the newest rows are flagged.
const FetchFactor = 4

// Visible reports whether moderation allows the post on a timeline.
func Visible(p models.Post) bool {
	return !p.Flagged
}

// Filter returns the posts that pass the moderation filter, preserving order.
func Filter(posts []models.Post) []models.Post {
	var res []models.Post
	for _, p := range posts {
		if Visible(p) {
			res = append(res, p)
		}
	}
	return res
}

// Assemble merges candidate posts into one page: newest first, publish-date
// ties broken by post id descending so pagination is deterministic.
// Candidates must already be moderation-filtered where that is wanted; own
// posts on a personal timeline deliberately are not.
func Assemble(pageSize int, candidates ...[]models.Post) []models.Post {
	var merged []models.Post
	for _, c := range candidates {
		merged = append(merged, c...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].PublishDate.Equal(merged[j].PublishDate) {
			return merged[i].PublishDate.After(merged[j].PublishDate)
		}
		return merged[i].ID > merged[j].ID
	})

	if len(merged) > pageSize {
		merged = merged[:pageSize]
	}
	return merged
}

// Public assembles the public timeline page from site-wide candidates.
func Public(candidates []models.Post, pageSize int) []models.Post {
	return Assemble(pageSize, Filter(candidates))
}

// Personal assembles a user's private timeline: their own posts regardless
// of flag, plus the unflagged posts of the authors they follow.
func Personal(own, followed []models.Post, pageSize int) []models.Post {
	return Assemble(pageSize, own, Filter(followed))
}
