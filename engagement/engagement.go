// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engagement

import (
	"sort"

	"github.com/scvote/councilvote/models"
)

// Display limits for the two ranked views.
const (
	TrendingLimit      = 5
	TopCandidatesLimit = 3
)

// TrendingPolicy is one entry of the trending-policies view, annotated with
// its owning candidate.
type TrendingPolicy struct {
	CandidateID       string  `json:"candidate_id"`
	CandidateName     string  `json:"candidate_name"`
	CandidateNickname string  `json:"candidate_nickname,omitempty"`
	ImageURL          string  `json:"image_url,omitempty"`
	PolicyID          string  `json:"policy_id"`
	Title             string  `json:"title"`
	Likes             int     `json:"likes"`
	CommentCount      int     `json:"comment_count"`
	Score             int     `json:"score"`
	Share             float64 `json:"share"`
}

// CandidateRank is one entry of the top-engaged-candidates view.
type CandidateRank struct {
	CandidateID     string  `json:"candidate_id"`
	Name            string  `json:"name"`
	Nickname        string  `json:"nickname,omitempty"`
	ImageURL        string  `json:"image_url,omitempty"`
	TotalEngagement int     `json:"total_engagement"`
	Share           float64 `json:"share"`
}

// PolicyScore is the interaction score of a single policy: one unit each for
// a policy like, the existence of a comment, and any reaction to a comment.
// No weighting, no decay. Missing maps count as empty.
func PolicyScore(p models.Policy) int {
	score := p.Likes + len(p.Comments)
	for _, c := range p.Comments {
		score += c.Likes + c.Dislikes
	}
	return score
}

// CandidateEngagement is the sum of a candidate's policy scores.
// A candidate without policies scores zero.
func CandidateEngagement(c models.Candidate) int {
	total := 0
	for _, id := range sortedPolicyIDs(c.Policies) {
		total += PolicyScore(c.Policies[id])
	}
	return total
}

// TrendingPolicies flattens every policy across every candidate, ranks by
// score descending, and returns the top five. The sort is stable over a
// deterministic flatten order (candidate display order, then policy id), so
// equal-score entries never jitter between computations over the same input.
func TrendingPolicies(candidates []models.CandidateDoc) []TrendingPolicy {
	ordered := displayOrder(candidates)

	flat := []TrendingPolicy{}
	for _, cand := range ordered {
		for _, pid := range sortedPolicyIDs(cand.Policies) {
			p := cand.Policies[pid]
			flat = append(flat, TrendingPolicy{
				CandidateID:       cand.ID,
				CandidateName:     cand.DisplayName(),
				CandidateNickname: cand.Nickname,
				ImageURL:          cand.ImageURL,
				PolicyID:          pid,
				Title:             p.Title,
				Likes:             p.Likes,
				CommentCount:      len(p.Comments),
				Score:             PolicyScore(p),
			})
		}
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].Score > flat[j].Score
	})

	if len(flat) > TrendingLimit {
		flat = flat[:TrendingLimit]
	}
	fillShares(flat)
	return flat
}

// TopCandidates ranks candidates by total engagement descending and returns
// the top three. Stable over display order, so ties keep their relative
// position.
func TopCandidates(candidates []models.CandidateDoc) []CandidateRank {
	ordered := displayOrder(candidates)

	ranks := []CandidateRank{}
	for _, cand := range ordered {
		ranks = append(ranks, CandidateRank{
			CandidateID:     cand.ID,
			Name:            cand.DisplayName(),
			Nickname:        cand.Nickname,
			ImageURL:        cand.ImageURL,
			TotalEngagement: CandidateEngagement(cand.Candidate),
		})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].TotalEngagement > ranks[j].TotalEngagement
	})

	if len(ranks) > TopCandidatesLimit {
		ranks = ranks[:TopCandidatesLimit]
	}

	top := 0
	if len(ranks) > 0 {
		top = ranks[0].TotalEngagement
	}
	for i := range ranks {
		ranks[i].Share = share(ranks[i].TotalEngagement, top)
	}
	return ranks
}

// displayOrder sorts candidates by candidate number ascending (unnumbered
// candidates last), with id as tiebreaker. This is the site's display order
// and the anchor that keeps the engagement sorts stable.
func displayOrder(candidates []models.CandidateDoc) []models.CandidateDoc {
	ordered := make([]models.CandidateDoc, len(candidates))
	copy(ordered, candidates)

	sort.SliceStable(ordered, func(i, j int) bool {
		ni, nj := ordered[i].CandidateNumber, ordered[j].CandidateNumber
		if ni != nj {
			if ni == 0 {
				return false
			}
			if nj == 0 {
				return true
			}
			return ni < nj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func sortedPolicyIDs(policies map[string]models.Policy) []string {
	ids := make([]string, 0, len(policies))
	for id := range policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func fillShares(entries []TrendingPolicy) {
	top := 0
	if len(entries) > 0 {
		top = entries[0].Score
	}
	for i := range entries {
		entries[i].Share = share(entries[i].Score, top)
	}
}

// share is the relative progress-bar width against the top score.
// A zero top score yields zero rather than dividing by it.
func share(score, top int) float64 {
	if top == 0 {
		return 0
	}
	return float64(score) / float64(top)
}
