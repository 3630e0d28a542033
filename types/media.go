package types

// FetchType is the category of listing requested for a content row.
type FetchType string

const (
	FetchTrending FetchType = "trending"
	FetchTopRated FetchType = "topRated"
	FetchPopular  FetchType = "popular"
	FetchGenre    FetchType = "genre"
	// FetchUpcoming only exists for movies.
	FetchUpcoming FetchType = "upcoming"
)

// MediaItem is one list entry returned by TMDB for a movie or a TV show.
// Movies fill Title/OriginalTitle/ReleaseDate, shows fill Name/OriginalName/FirstAirDate.
type MediaItem struct {
	ID               int64    `json:"id"`
	MediaType        string   `json:"media_type,omitempty"`
	Title            string   `json:"title,omitempty"`
	OriginalTitle    string   `json:"original_title,omitempty"`
	Name             string   `json:"name,omitempty"`
	OriginalName     string   `json:"original_name,omitempty"`
	Overview         string   `json:"overview"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	ReleaseDate      string   `json:"release_date,omitempty"`
	FirstAirDate     string   `json:"first_air_date,omitempty"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Popularity       float64  `json:"popularity"`
	GenreIDs         []int    `json:"genre_ids"`
	OriginCountry    []string `json:"origin_country,omitempty"`
	OriginalLanguage string   `json:"original_language"`
	Adult            bool     `json:"adult,omitempty"`
	Video            bool     `json:"video,omitempty"`
}

// DisplayTitle returns the movie title or the show name.
func (m MediaItem) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// MediaPage is one page of a TMDB listing plus pagination totals.
type MediaPage struct {
	Page         int         `json:"page"`
	Results      []MediaItem `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// EmptyMediaPage is the zero-result page returned when nothing should be fetched.
func EmptyMediaPage() MediaPage {
	return MediaPage{Results: []MediaItem{}}
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type GenreList struct {
	Genres []Genre `json:"genres"`
}

type ProductionCompany struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

type ProductionCountry struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

type SpokenLanguage struct {
	ISO6391     string `json:"iso_639_1"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

// MovieDetails is the response of GET /movie/{id}.
type MovieDetails struct {
	MediaItem
	Genres              []Genre             `json:"genres"`
	Runtime             int                 `json:"runtime"`
	Budget              int64               `json:"budget"`
	Revenue             int64               `json:"revenue"`
	Status              string              `json:"status"`
	Tagline             string              `json:"tagline"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	SpokenLanguages     []SpokenLanguage    `json:"spoken_languages"`
}

type Season struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	SeasonNumber int     `json:"season_number"`
	EpisodeCount int     `json:"episode_count"`
	AirDate      string  `json:"air_date"`
}

// TVShowDetails is the response of GET /tv/{id}.
type TVShowDetails struct {
	MediaItem
	Genres              []Genre             `json:"genres"`
	EpisodeRunTime      []int               `json:"episode_run_time"`
	NumberOfEpisodes    int                 `json:"number_of_episodes"`
	NumberOfSeasons     int                 `json:"number_of_seasons"`
	Status              string              `json:"status"`
	Tagline             string              `json:"tagline"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	SpokenLanguages     []SpokenLanguage    `json:"spoken_languages"`
	Seasons             []Season            `json:"seasons"`
}

type CastMember struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Character          string  `json:"character"`
	ProfilePath        *string `json:"profile_path"`
	Order              int     `json:"order"`
	CastID             int     `json:"cast_id"`
	CreditID           string  `json:"credit_id"`
	Gender             int     `json:"gender"`
	KnownForDepartment string  `json:"known_for_department"`
}

type CrewMember struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Job                string  `json:"job"`
	Department         string  `json:"department"`
	ProfilePath        *string `json:"profile_path"`
	CreditID           string  `json:"credit_id"`
	Gender             int     `json:"gender"`
	KnownForDepartment string  `json:"known_for_department"`
}

type Credits struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type Video struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Site        string `json:"site"`
	Size        int    `json:"size"`
	Type        string `json:"type"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

type Videos struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

// ExternalReview is a review served by TMDB itself.
type ExternalReview struct {
	ID            string       `json:"id"`
	Author        string       `json:"author"`
	AuthorDetails ReviewAuthor `json:"author_details"`
	Content       string       `json:"content"`
	CreatedAt     string       `json:"created_at"`
	UpdatedAt     string       `json:"updated_at"`
	URL           string       `json:"url"`
}

// ExternalReviewsPage is a page of reviews served by TMDB.
type ExternalReviewsPage struct {
	ID           int64            `json:"id"`
	Page         int              `json:"page"`
	Results      []ExternalReview `json:"results"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
}
