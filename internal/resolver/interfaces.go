package resolver

import "context"

// DirectoryFetcher retrieves a directory listing and returns its links in document order.
type DirectoryFetcher interface {
	FetchDirectory(ctx context.Context, url string) ([]ScrapedLink, error)
}

// Decoder decodes a VIN into vehicle attributes.
type Decoder interface {
	DecodeVIN(ctx context.Context, vin string) (VehicleInfo, error)
}

// Matcher picks the candidate most similar to target. It returns nil when candidates is empty.
type Matcher interface {
	FindBestMatch(target string, candidates []string) *Match
}

// Cache stores resolved VINs.
type Cache interface {
	Get(vin string) (Entry, bool)
	Set(vin string, entry Entry)
}
