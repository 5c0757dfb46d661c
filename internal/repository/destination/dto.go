package destination

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/urbansearch/internal/domain"
)

// Hash field names of a destination record.
const (
	fieldSlug        = "slug"
	fieldName        = "name"
	fieldCity        = "city"
	fieldCategory    = "category"
	fieldDescription = "description"
	fieldContent     = "content"
	fieldSearchText  = "search_text"
	fieldImage       = "image"
	fieldTags        = "tags"
	fieldRating      = "rating"
	fieldMichelin    = "michelin_stars"
	fieldSaveCount   = "save_count"
	fieldCrown       = "crown"
	fieldPriceLevel  = "price_level"
	fieldEmbedding   = "embedding"
)

// parseHashFields converts a flat hash into a Destination. slug falls back to
// the key suffix when the field is absent.
func parseHashFields(keySlug string, m map[string]string) (domain.Destination, error) {
	d := domain.Destination{
		Slug:        m[fieldSlug],
		Name:        strings.TrimSpace(m[fieldName]),
		City:        m[fieldCity],
		Category:    m[fieldCategory],
		Description: m[fieldDescription],
		Content:     m[fieldContent],
		SearchText:  m[fieldSearchText],
		Image:       m[fieldImage],
		Tags:        splitTags(m[fieldTags]),
	}
	if d.Slug == "" {
		d.Slug = keySlug
	}
	if d.Slug == "" || d.Name == "" {
		return domain.Destination{}, fmt.Errorf("%s: missing slug or name: %w", keySlug, domain.ErrMalformedRecord)
	}

	var err error
	if d.Rating, err = parseFloat(m, fieldRating); err != nil {
		return domain.Destination{}, fmt.Errorf("%s: %w", d.Slug, err)
	}
	if d.MichelinStars, err = parseInt(m, fieldMichelin); err != nil {
		return domain.Destination{}, fmt.Errorf("%s: %w", d.Slug, err)
	}
	if d.SaveCount, err = parseInt(m, fieldSaveCount); err != nil {
		return domain.Destination{}, fmt.Errorf("%s: %w", d.Slug, err)
	}
	if d.PriceLevel, err = parseInt(m, fieldPriceLevel); err != nil {
		return domain.Destination{}, fmt.Errorf("%s: %w", d.Slug, err)
	}
	d.Crown = parseBool(m[fieldCrown])

	if raw, ok := m[fieldEmbedding]; ok && raw != "" {
		v := bytesToVector(raw)
		if v == nil {
			return domain.Destination{}, fmt.Errorf("%s: embedding length %d: %w",
				d.Slug, len(raw), domain.ErrMalformedRecord)
		}
		d.Embedding = v
	}

	return d, nil
}

func parseFloat(m map[string]string, field string) (float64, error) {
	s := strings.TrimSpace(m[field])
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("field %s=%q: %w", field, s, domain.ErrMalformedRecord)
	}
	return f, nil
}

func parseInt(m map[string]string, field string) (int, error) {
	s := strings.TrimSpace(m[field])
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("field %s=%q: %w", field, s, domain.ErrMalformedRecord)
	}
	return n, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// splitTags parses a comma-separated tag list.
func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
