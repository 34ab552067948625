package model

// Passage is one retrieved chunk of the knowledge base.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score,omitempty"`
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string  `json:"title"`
	Link    string  `json:"link,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Address string  `json:"address,omitempty"`
	Rating  float64 `json:"rating,omitempty"`
}
