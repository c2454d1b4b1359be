package resolver

// VehicleInfo is the decoded year/make/model for a VIN.
type VehicleInfo struct {
	Year  string `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

// Complete reports whether every field is populated.
func (v VehicleInfo) Complete() bool {
	return v.Year != "" && v.Make != "" && v.Model != ""
}

// ScrapedLink is one anchor from a directory listing.
type ScrapedLink struct {
	// Text is the anchor label with a single trailing slash removed.
	Text string `json:"text"`
	// URL is absolute, resolved against the listing page.
	URL string `json:"url"`
	// Name is the decoded last path segment of URL and is the matching key.
	Name string `json:"name"`
}

// Match is the best-scoring candidate returned by a Matcher.
type Match struct {
	Index         int     `json:"index"`
	Candidate     string  `json:"candidate"`
	Score         float64 `json:"score"`
	LowConfidence bool    `json:"low_confidence"`
}

// Stage names one step of the resolution walk.
type Stage string

// Resolution stages.
const (
	StageCacheCheck Stage = "cache_check"
	StageDecoding   Stage = "decoding"
	StageMake       Stage = "make"
	StageYear       Stage = "year"
	StageModel      Stage = "model"
	StageDone       Stage = "done"
)

// StageMatch records the outcome of one fetch-and-match hop.
type StageMatch struct {
	Stage         Stage   `json:"stage"`
	Target        string  `json:"target"`
	Candidate     string  `json:"candidate"`
	URL           string  `json:"url"`
	Score         float64 `json:"score"`
	LowConfidence bool    `json:"low_confidence"`
}

// Entry is the cached value for a resolved VIN.
type Entry struct {
	Info    VehicleInfo
	URL     string
	Matches []StageMatch
}

// Resolution is the result of resolving a VIN.
type Resolution struct {
	Vehicle VehicleInfo  `json:"nhtsa_data"`
	BaseURL string       `json:"charm_base_url"`
	Matches []StageMatch `json:"matches,omitempty"`
	Cached  bool         `json:"-"`
}

// Category is one browsable entry under a documentation section.
type Category struct {
	Category string `json:"category"`
	URL      string `json:"url"`
}
