// Package stats computes dashboard aggregates from fetched collections.
// The computations are pure so the stats endpoints can substitute a
// zeroed overview when the store is unreachable instead of failing.
package stats

import (
	"sort"
	"time"

	"civicpulse-be/models"
)

// GroupCount is one label/count pair in a grouped breakdown.
type GroupCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// IssueOverview is the aggregate view of the issue collection.
type IssueOverview struct {
	TotalIssues       int          `json:"totalIssues"`
	TotalVotes        int          `json:"totalVotes"`
	TotalComments     int          `json:"totalComments"`
	ByCategory        []GroupCount `json:"byCategory"`
	ByStatus          []GroupCount `json:"byStatus"`
	ByPriority        []GroupCount `json:"byPriority"`
	CreatedLast30Days int          `json:"createdLast30Days"`
	AvgResolutionDays float64      `json:"avgResolutionDays"`
}

// UserOverview is the aggregate view of the user collection.
type UserOverview struct {
	TotalUsers int          `json:"totalUsers"`
	ByRole     []GroupCount `json:"byRole"`
}

// EmptyIssueOverview is the graceful-degradation payload: zero totals
// and empty (not nil) group lists.
func EmptyIssueOverview() IssueOverview {
	return IssueOverview{
		ByCategory: []GroupCount{},
		ByStatus:   []GroupCount{},
		ByPriority: []GroupCount{},
	}
}

// EmptyUserOverview mirrors EmptyIssueOverview for users.
func EmptyUserOverview() UserOverview {
	return UserOverview{ByRole: []GroupCount{}}
}

// BuildIssueOverview aggregates the full issue collection: totals,
// grouped counts sorted by count descending, issues created in the
// last 30 days, and the average resolution time in days. Unresolved
// issues are excluded from the average, not counted as zero.
func BuildIssueOverview(issues []models.Issue, now time.Time) IssueOverview {
	byCategory := map[string]int{}
	byStatus := map[string]int{}
	byPriority := map[string]int{}

	overview := EmptyIssueOverview()
	overview.TotalIssues = len(issues)

	cutoff := now.AddDate(0, 0, -30)
	var resolutionTotal float64
	var resolvedCount int

	for _, issue := range issues {
		byCategory[string(issue.Category)]++
		byStatus[string(issue.Status)]++
		byPriority[string(issue.Priority)]++

		overview.TotalVotes += len(issue.Upvoters) + len(issue.Downvoters)
		overview.TotalComments += len(issue.Comments)

		if issue.CreatedAt.After(cutoff) {
			overview.CreatedLast30Days++
		}
		if issue.ResolvedAt != nil {
			resolutionTotal += issue.ResolvedAt.Sub(issue.CreatedAt).Hours() / 24
			resolvedCount++
		}
	}

	if resolvedCount > 0 {
		overview.AvgResolutionDays = resolutionTotal / float64(resolvedCount)
	}

	overview.ByCategory = sortedGroups(byCategory)
	overview.ByStatus = sortedGroups(byStatus)
	overview.ByPriority = sortedGroups(byPriority)
	return overview
}

// BuildUserOverview aggregates the user collection by role.
func BuildUserOverview(users []models.User) UserOverview {
	byRole := map[string]int{}
	for _, u := range users {
		byRole[string(u.Role)]++
	}
	return UserOverview{
		TotalUsers: len(users),
		ByRole:     sortedGroups(byRole),
	}
}

// sortedGroups orders by count descending, label ascending on ties so
// the output is deterministic.
func sortedGroups(counts map[string]int) []GroupCount {
	groups := make([]GroupCount, 0, len(counts))
	for label, count := range counts {
		groups = append(groups, GroupCount{Label: label, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Label < groups[j].Label
	})
	return groups
}
