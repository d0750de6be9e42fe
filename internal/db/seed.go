package db

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/moviease/internal/logger"
)

type seedMovie struct {
	id         int64
	title      string
	genres     []int
	rating     float64
	votes      int
	popularity float64
	released   string
	warnings   []string
}

// demoCatalog is a small slice of TMDB.
var demoCatalog = []seedMovie{
	{550, "Fight Club", []int{18, 53}, 8.4, 29000, 61.4, "1999-10-15", []string{"violence"}},
	{680, "Pulp Fiction", []int{53, 80}, 8.5, 27000, 70.2, "1994-09-10", []string{"violence", "drugs"}},
	{13, "Forrest Gump", []int{35, 18, 10749}, 8.5, 26000, 58.9, "1994-06-23", nil},
	{155, "The Dark Knight", []int{18, 28, 80, 53}, 8.5, 32000, 89.3, "2008-07-16", []string{"violence"}},
	{27205, "Inception", []int{28, 878, 12}, 8.4, 36000, 83.1, "2010-07-15", nil},
	{157336, "Interstellar", []int{12, 18, 878}, 8.4, 34000, 140.2, "2014-11-05", nil},
	{603, "The Matrix", []int{28, 878}, 8.2, 25000, 66.7, "1999-03-30", []string{"violence"}},
	{120, "The Fellowship of the Ring", []int{12, 14, 28}, 8.4, 24000, 95.5, "2001-12-18", nil},
	{862, "Toy Story", []int{16, 12, 10751, 35}, 8.0, 18000, 88.0, "1995-10-30", nil},
	{129, "Spirited Away", []int{16, 10751, 14}, 8.5, 16000, 77.8, "2001-07-20", nil},
	{597, "Titanic", []int{18, 10749}, 7.9, 25000, 90.1, "1997-11-18", nil},
	{19404, "Dilwale Dulhania Le Jayenge", []int{35, 18, 10749}, 8.5, 4400, 24.0, "1995-10-20", nil},
	{694, "The Shining", []int{27, 53}, 8.2, 17000, 45.3, "1980-05-23", []string{"violence", "gore"}},
	{539, "Psycho", []int{27, 18, 53}, 8.4, 9800, 35.6, "1960-06-22", []string{"violence"}},
	{105, "Back to the Future", []int{12, 35, 878}, 8.3, 19000, 52.0, "1985-07-03", nil},
	{11, "Star Wars", []int{12, 28, 878}, 8.2, 20000, 81.4, "1977-05-25", nil},
	{194, "Amélie", []int{35, 10749}, 7.9, 11000, 30.2, "2001-04-25", nil},
	{496243, "Parasite", []int{35, 53, 18}, 8.5, 17000, 73.6, "2019-05-30", []string{"violence"}},
	{313369, "La La Land", []int{35, 18, 10749, 10402}, 7.9, 16000, 42.8, "2016-11-29", nil},
	{424, "Schindler's List", []int{18, 36, 10752}, 8.6, 15000, 55.1, "1993-12-15", []string{"violence"}},
	{98, "Gladiator", []int{28, 18, 12}, 8.2, 18000, 84.7, "2000-05-01", []string{"violence"}},
	{329, "Jurassic Park", []int{12, 878}, 7.9, 16000, 60.3, "1993-06-11", nil},
	{9806, "The Incredibles", []int{28, 12, 16, 10751}, 7.7, 17000, 67.2, "2004-11-05", nil},
	{38, "Eternal Sunshine of the Spotless Mind", []int{878, 18, 10749}, 8.1, 14000, 33.9, "2004-03-19", nil},
	{99861, "Avengers: Age of Ultron", []int{28, 12, 878}, 7.3, 22000, 64.0, "2015-04-22", nil},
	{10681, "WALL·E", []int{16, 35, 10751, 878}, 8.1, 18000, 58.8, "2008-06-22", nil},
	{4935, "Howl's Moving Castle", []int{14, 16, 12}, 8.4, 9800, 48.1, "2004-09-09", nil},
	{77, "Memento", []int{9648, 53}, 8.2, 14000, 29.5, "2000-10-11", nil},
	{1124, "The Prestige", []int{18, 9648, 878}, 8.2, 16000, 41.7, "2006-10-17", nil},
	{240, "The Godfather Part II", []int{18, 80}, 8.6, 12000, 50.4, "1974-12-20", []string{"violence"}},
	{46195, "Rio", []int{16, 12, 35, 10751}, 6.7, 6500, 22.6, "2011-04-03", nil},
	{9502, "Kung Fu Panda", []int{28, 12, 16, 35, 10751}, 7.3, 11000, 70.0, "2008-06-04", nil},
	{45317, "The Fighter", []int{18}, 7.2, 4300, 14.0, "2010-12-10", nil},
	{666277, "Past Lives", []int{18, 10749}, 7.8, 1400, 20.5, "2023-06-02", nil},
	{1018, "Mulholland Drive", []int{53, 18, 9648}, 7.8, 5200, 18.3, "2001-06-06", nil},
	{9870, "Forgetting Sarah Marshall", []int{35, 10749, 18}, 6.7, 3600, 16.2, "2008-04-17", nil},
}

var (
	seedPlatforms = []string{"netflix", "prime", "disney", "max", "apple"}
	seedTriggers  = []string{"violence", "gore", "drugs"}
	// weighted towards positive reactions
	seedActions = []string{"love", "like", "like", "maybe", "nope", "nope"}
)

const seedUsers = 12

// SeedTestData resets the database and populates it with a demo catalog,
// users' preferences, swipes and groups.
//
// Behavior:
//  1. Clears every table.
//  2. Inserts the demo catalog with genres, platforms and content warnings.
//  3. Gives user1..user12 a few platforms; every fourth user avoids a trigger.
//  4. Each user swipes 10-20 random movies, snapshotting genres and rating.
//  5. Creates couples (user1+user2, user3+user4, user5+user6), a room of
//     four and a movie night of five.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	models := AllModels()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", models[i], err)
		}
	}
	logger.Info("cleared existing data")

	// --- Catalog ---
	for _, m := range demoCatalog {
		row := Movie{
			ID:          m.id,
			Title:       m.title,
			VoteAverage: m.rating,
			VoteCount:   m.votes,
			Popularity:  m.popularity,
			ReleaseDate: m.released,
		}
		for _, g := range m.genres {
			row.Genres = append(row.Genres, MovieGenre{MovieID: m.id, GenreID: g})
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed movie %d: %w", m.id, err)
		}

		for _, p := range pick(r, seedPlatforms, 1+r.Intn(3)) {
			if err := db.Create(&MoviePlatform{MovieID: m.id, Platform: p}).Error; err != nil {
				return fmt.Errorf("failed to seed availability: %w", err)
			}
		}
		for _, w := range m.warnings {
			if err := db.Create(&MovieWarning{MovieID: m.id, Category: w}).Error; err != nil {
				return fmt.Errorf("failed to seed warning: %w", err)
			}
		}
	}
	logger.Info("seeded catalog", "movies", len(demoCatalog))

	// --- Users: preferences and swipes ---
	swipes := 0
	for i := 1; i <= seedUsers; i++ {
		userID := fmt.Sprintf("user%d", i)

		for _, p := range pick(r, seedPlatforms, 2+r.Intn(2)) {
			if err := db.Create(&UserPlatform{UserID: userID, Platform: p}).Error; err != nil {
				return fmt.Errorf("failed to seed platform: %w", err)
			}
		}
		if i%4 == 0 {
			t := seedTriggers[r.Intn(len(seedTriggers))]
			if err := db.Create(&UserTrigger{UserID: userID, Category: t}).Error; err != nil {
				return fmt.Errorf("failed to seed trigger: %w", err)
			}
		}

		n := 10 + r.Intn(11)
		for _, idx := range r.Perm(len(demoCatalog))[:n] {
			m := demoCatalog[idx]
			ts := time.Now().UTC().Add(-time.Duration(r.Intn(30*24)) * time.Hour)
			swipe := Swipe{
				UserID:      userID,
				MovieID:     m.id,
				Action:      seedActions[r.Intn(len(seedActions))],
				Genres:      m.genres,
				Rating:      m.rating,
				ReleaseDate: m.released,
				CreatedAt:   ts,
				UpdatedAt:   ts,
			}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"action", "updated_at"}),
			}).Create(&swipe).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}
			swipes++
		}
	}
	logger.Info("seeded users", "users", seedUsers, "swipes", swipes)

	// --- Groups ---
	groups := []struct {
		kind    string
		name    string
		members []int
	}{
		{"couple", "", []int{1, 2}},
		{"couple", "", []int{3, 4}},
		{"couple", "", []int{5, 6}},
		{"room", "film club", []int{1, 3, 7, 8}},
		{"movie_night", "friday night", []int{2, 4, 9, 10, 11}},
	}
	for _, g := range groups {
		row := Group{ID: uuid.NewString(), Kind: g.kind, Name: g.name}
		for _, m := range g.members {
			row.Members = append(row.Members, GroupMember{GroupID: row.ID, UserID: fmt.Sprintf("user%d", m)})
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed %s: %w", g.kind, err)
		}
		logger.Info("seeded group", "kind", g.kind, "id", row.ID, "members", len(row.Members))
	}

	return nil
}

// pick returns n distinct random elements of vals.
func pick(r *rand.Rand, vals []string, n int) []string {
	if n > len(vals) {
		n = len(vals)
	}
	out := make([]string, 0, n)
	for _, i := range r.Perm(len(vals))[:n] {
		out = append(out, vals[i])
	}
	return out
}
