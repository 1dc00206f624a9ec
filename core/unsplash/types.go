package unsplash

// Photo is a read-only view of an Unsplash photo object. Only the fields the
// bot renders or calls back into are mapped; the payload carries much more.
type Photo struct {
	ID             string     `json:"id"`
	Description    *string    `json:"description"`
	AltDescription *string    `json:"alt_description"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Likes          int        `json:"likes"`
	URLs           PhotoURLs  `json:"urls"`
	Links          PhotoLinks `json:"links"`
	User           User       `json:"user"`
}

// PhotoURLs lists the image renditions Unsplash serves for a photo.
type PhotoURLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

// PhotoLinks carries the photo page URL and the opaque download-tracking
// location required by the API usage terms.
type PhotoLinks struct {
	HTML             string `json:"html"`
	DownloadLocation string `json:"download_location"`
}

// User identifies the photographer.
type User struct {
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Links    UserLinks `json:"links"`
}

// UserLinks carries the photographer profile URL.
type UserLinks struct {
	HTML string `json:"html"`
}

// SearchResult is the /search/photos response envelope.
type SearchResult struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

// SearchParams are the supported /search/photos query parameters.
type SearchParams struct {
	Query       string
	Page        int
	PerPage     int
	Orientation string
	Color       string
}
