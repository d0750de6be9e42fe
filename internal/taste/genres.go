package taste

// genreNames is the fixed TMDB movie genre list.
var genreNames = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

var genreIDs = func() map[string]int {
	m := make(map[string]int, len(genreNames))
	for id, name := range genreNames {
		m[name] = id
	}
	return m
}()

// GenreName resolves a TMDB genre id.
func GenreName(id int) (string, bool) {
	n, ok := genreNames[id]
	return n, ok
}

// GenreID resolves a TMDB genre name.
func GenreID(name string) (int, bool) {
	id, ok := genreIDs[name]
	return id, ok
}
