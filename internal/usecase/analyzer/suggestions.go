package analyzer

import (
	"fmt"

	"github.com/kailas-cloud/urbansearch/internal/domain/search/intent"
)

// Suggestions proposes follow-up queries when the intent names only a city or
// only a category.
func Suggestions(in intent.Intent) []string {
	city, category := in.City(), in.Category()
	switch {
	case city != "" && category == "":
		return []string{
			fmt.Sprintf(`Try "best restaurants in %s"`, city),
			fmt.Sprintf(`Try "top cafes in %s"`, city),
		}
	case category != "" && city == "":
		return []string{
			fmt.Sprintf(`Try "best %ss in Tokyo"`, category),
			fmt.Sprintf(`Try "best %ss in Paris"`, category),
		}
	default:
		return nil
	}
}
