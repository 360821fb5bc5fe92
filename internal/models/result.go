package models

// ResultKind tags an [EnrichmentResult].
type ResultKind int

const (
	ResultNotFound ResultKind = iota
	ResultFound
	ResultFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultFound:
		return "found"
	case ResultFailed:
		return "failed"
	default:
		return "not_found"
	}
}

// EnrichmentResult is the outcome of looking up one bare name.
//
// Exactly one of Found or Name is meaningful, chosen by Kind. A failed lookup
// keeps the name and the error that ended it.
type EnrichmentResult struct {
	Kind  ResultKind
	Found ArtistWithTracks
	Name  BareArtistName
	Err   error
}

// Found wraps a resolved artist.
func Found(awt ArtistWithTracks) EnrichmentResult {
	return EnrichmentResult{Kind: ResultFound, Found: awt}
}

// NotFound records a name with no matching catalog artist.
func NotFound(name BareArtistName) EnrichmentResult {
	return EnrichmentResult{Kind: ResultNotFound, Name: name}
}

// Failed records a name whose lookup hit a non-retryable catalog error.
func Failed(name BareArtistName, err error) EnrichmentResult {
	return EnrichmentResult{Kind: ResultFailed, Name: name, Err: err}
}

// Enriched reports whether the result carries an artist with at least one track.
func (r EnrichmentResult) Enriched() bool {
	return r.Kind == ResultFound && r.Found.Enriched()
}
