package tier

// Tier names the retrieval strategy that produced a result set.
type Tier string

// Tier constants. The string values are part of the public response contract.
const (
	VectorSemantic Tier = "vector-semantic"
	FullText       Tier = "fulltext"
	AIFields       Tier = "ai-fields"
	Keyword        Tier = "keyword"
	// Basic labels responses produced without retrieval (validation failures).
	Basic Tier = "basic"
)

// Fallback is the order in which the coordinator tries the retrieval tiers.
var Fallback = []Tier{VectorSemantic, FullText, AIFields, Keyword}

// IsValid checks if the tier is one of the supported values.
func (t Tier) IsValid() bool {
	switch t {
	case VectorSemantic, FullText, AIFields, Keyword, Basic:
		return true
	}
	return false
}
