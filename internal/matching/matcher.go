// Package matching computes couple and group matches from swipe histories.
package matching

import (
	"math"
	"sort"

	"github.com/oggyb/moviease/internal/model"
	"github.com/oggyb/moviease/internal/scoring"
)

// Policy decides how many members must like a movie before it is a group match.
type Policy struct {
	// MinParticipants of 0 means every member.
	MinParticipants int
}

var (
	// Unanimous is the room policy.
	Unanimous = Policy{}
	// Loose is the movie night policy.
	Loose = Policy{MinParticipants: 2}
)

func (p Policy) required(members int) int {
	if p.MinParticipants <= 0 || p.MinParticipants > members {
		return members
	}
	return p.MinParticipants
}

// Latest keeps one record per movie, the most recent one, and drops records
// without a movie id or with an unknown action. Order of first appearance is kept.
func Latest(history []model.SwipeRecord) []model.SwipeRecord {
	idx := make(map[int64]int, len(history))
	out := make([]model.SwipeRecord, 0, len(history))
	for _, r := range history {
		if r.MovieID == 0 || !r.Action.Valid() {
			continue
		}
		if i, ok := idx[r.MovieID]; ok {
			if !r.Timestamp.Before(out[i].Timestamp) {
				out[i] = r
			}
			continue
		}
		idx[r.MovieID] = len(out)
		out = append(out, r)
	}
	return out
}

// Positives returns the deduplicated positive swipes keyed by movie.
func Positives(history []model.SwipeRecord) map[int64]model.SwipeRecord {
	out := make(map[int64]model.SwipeRecord)
	for _, r := range Latest(history) {
		if r.Action.Positive() {
			out[r.MovieID] = r
		}
	}
	return out
}

// Pair intersects two users' positive swipes. Result is sorted by combined
// score, then by most recent mutual interest.
func Pair(historyA, historyB []model.SwipeRecord) []model.PairMatch {
	a := Positives(historyA)
	matches := make([]model.PairMatch, 0)
	for id, rb := range Positives(historyB) {
		ra, ok := a[id]
		if !ok {
			continue
		}
		ts := ra.Timestamp
		if rb.Timestamp.After(ts) {
			ts = rb.Timestamp
		}
		matches = append(matches, model.PairMatch{
			MovieID:       id,
			UserAAction:   ra.Action,
			UserBAction:   rb.Action,
			CombinedScore: scoring.Score(ra.Action) + scoring.Score(rb.Action),
			Timestamp:     ts,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		mi, mj := matches[i], matches[j]
		if mi.CombinedScore != mj.CombinedScore {
			return mi.CombinedScore > mj.CombinedScore
		}
		if !mi.Timestamp.Equal(mj.Timestamp) {
			return mi.Timestamp.After(mj.Timestamp)
		}
		return mi.MovieID < mj.MovieID
	})
	return matches
}

// Compatibility maps a match count to a 0..100 percentage. The square root
// lets a few matches out of a small positive set already score well.
func Compatibility(matchCount, positiveA, positiveB int) int {
	smaller := positiveA
	if positiveB < smaller {
		smaller = positiveB
	}
	if smaller <= 0 || matchCount <= 0 {
		return 0
	}
	pct := int(math.Round(math.Sqrt(float64(matchCount)/float64(smaller)) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

type groupAcc struct {
	actions map[string]scoring.Action
	score   int
	latest  model.SwipeRecord
}

// Group finds movies liked by enough members. Only the listed members'
// histories are read; fewer than two members yields no matches.
// Cost is O(members x swipes), fine for the small groups the app creates.
func Group(histories map[string][]model.SwipeRecord, members []string, policy Policy) []model.GroupMatch {
	uniq := dedupeMembers(members)
	if len(uniq) < 2 {
		return []model.GroupMatch{}
	}
	need := policy.required(len(uniq))

	acc := make(map[int64]*groupAcc)
	for _, uid := range uniq {
		for id, r := range Positives(histories[uid]) {
			g, ok := acc[id]
			if !ok {
				g = &groupAcc{actions: make(map[string]scoring.Action)}
				acc[id] = g
			}
			g.actions[uid] = r.Action
			g.score += scoring.Score(r.Action)
			if r.Timestamp.After(g.latest.Timestamp) {
				g.latest = r
			}
		}
	}

	matches := make([]model.GroupMatch, 0)
	for id, g := range acc {
		if len(g.actions) < need {
			continue
		}
		participants := make([]string, 0, len(g.actions))
		for uid := range g.actions {
			participants = append(participants, uid)
		}
		sort.Strings(participants)
		matches = append(matches, model.GroupMatch{
			MovieID:        id,
			Participants:   participants,
			Actions:        g.actions,
			AggregateScore: g.score,
			MatchRatio:     float64(len(participants)) / float64(len(uniq)),
			Perfect:        len(participants) == len(uniq),
			Timestamp:      g.latest.Timestamp,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		mi, mj := matches[i], matches[j]
		if mi.Perfect != mj.Perfect {
			return mi.Perfect
		}
		if mi.AggregateScore != mj.AggregateScore {
			return mi.AggregateScore > mj.AggregateScore
		}
		if !mi.Timestamp.Equal(mj.Timestamp) {
			return mi.Timestamp.After(mj.Timestamp)
		}
		return mi.MovieID < mj.MovieID
	})
	return matches
}

func dedupeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
