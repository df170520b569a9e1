package semantic

// OfferHit is a single vector search hit over the offer collection.
type OfferHit struct {
	ID      string            `json:"id"`
	Score   float32           `json:"score"`
	Title   string            `json:"title"`
	Company string            `json:"company"`
	Source  string            `json:"source"`
	Meta    map[string]string `json:"meta"`
}

// OfferVector is one offer embedding to store in Qdrant. ID must be the
// offer's UUID so vector hits join back to the relational row.
type OfferVector struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // title, company, source, user_id
}
