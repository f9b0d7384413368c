package index

// Posting is one (term, url) occurrence record.
type Posting struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

type PostingList []Posting

// TermEntry is a term with its postings, as produced by Snapshot.
type TermEntry struct {
	Term     string      `json:"term"`
	Postings PostingList `json:"postings"`
}
