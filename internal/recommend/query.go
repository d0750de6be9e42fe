package recommend

import (
	"math"
	"sort"

	"github.com/oggyb/moviease/internal/model"
)

const (
	minVotes      = 100
	groupMinVotes = 200
	// trustedMatches is how many mutual matches let a couple's bar go up.
	trustedMatches = 3

	personalGenres = 2
	coupleGenres   = 2
	groupGenres    = 3
)

// PersonalQuery builds the discovery query for one profile. ok is false
// when the profile has no genre signal and popularity should be used.
func PersonalQuery(p model.TasteProfile) (q model.Query, ok bool) {
	ids := make([]int, 0, personalGenres)
	for _, g := range p.TopGenres {
		if len(ids) == personalGenres {
			break
		}
		ids = append(ids, g.ID)
	}
	if len(ids) == 0 {
		return model.Query{}, false
	}
	return model.Query{
		GenreIDs:     ids,
		MinRating:    math.Max(6, p.AvgRating-1),
		MinVoteCount: minVotes,
		SortBy:       model.SortPopularity,
	}, true
}

// CoupleQuery builds the query for two partners. With enough mutual
// matches the rating floor goes up. ok is false when the partners share
// no top genre.
func CoupleQuery(a, b model.TasteProfile, mutualMatches int) (q model.Query, ok bool) {
	ids := commonGenres(a, b, coupleGenres)
	if len(ids) == 0 {
		return model.Query{}, false
	}
	avg := averageRating([]model.TasteProfile{a, b})

	q = model.Query{
		GenreIDs:     ids,
		MinRating:    math.Max(6, avg-1),
		MinVoteCount: minVotes,
		SortBy:       model.SortPopularity,
	}
	if mutualMatches >= trustedMatches {
		q.MinRating = math.Max(7, avg-0.5)
	}
	return q, true
}

// GroupQuery sums genre percentages over all members and keeps the top
// three. Groups need broader external validation, hence more votes.
func GroupQuery(profiles []model.TasteProfile) (q model.Query, ok bool) {
	totals := make(map[int]int)
	for _, p := range profiles {
		for _, g := range p.TopGenres {
			totals[g.ID] += g.Percentage
		}
	}
	ids := rankGenres(totals, groupGenres)
	if len(ids) == 0 {
		return model.Query{}, false
	}
	return model.Query{
		GenreIDs:     ids,
		MinRating:    math.Max(6, averageRating(profiles)-1),
		MinVoteCount: groupMinVotes,
		SortBy:       model.SortPopularity,
	}, true
}

// commonGenres returns genres in both profiles' top lists, strongest
// combined score first.
func commonGenres(a, b model.TasteProfile, n int) []int {
	scores := make(map[int]int, len(a.TopGenres))
	for _, g := range a.TopGenres {
		scores[g.ID] = g.Score
	}
	common := make(map[int]int)
	for _, g := range b.TopGenres {
		if s, ok := scores[g.ID]; ok {
			common[g.ID] = s + g.Score
		}
	}
	return rankGenres(common, n)
}

func rankGenres(totals map[int]int, n int) []int {
	ids := make([]int, 0, len(totals))
	for id, v := range totals {
		if v > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] > totals[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// averageRating averages the members that have rating data.
func averageRating(profiles []model.TasteProfile) float64 {
	var sum float64
	n := 0
	for _, p := range profiles {
		if p.AvgRating > 0 {
			sum += p.AvgRating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
