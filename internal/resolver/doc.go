// Package resolver turns a VIN into a documentation-site model directory and lists the repair
// content categories below it.
//
// Resolution walks three directory listings in order. The root listing is matched against the
// decoded make, the make listing against the model year, and the year listing against the model.
// Each hop depends on the URL found by the previous one, so the walk is strictly sequential. A
// successful walk is stored in the injected Cache; failed walks store nothing.
//
// Implementations of the collaborators live in sibling packages:
//   - internal/fetcher/colly fetches and parses directory listings.
//   - internal/nhtsa decodes VINs against the vPIC API.
//   - internal/match scores candidates with bigram similarity.
//   - internal/cache bounds the resolution cache.
package resolver
