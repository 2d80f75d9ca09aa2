package citation

import (
	"strings"
	"time"

	"fundfaq/internal/domain"
)

const (
	defaultText    = "HDFC Mutual Fund"
	verifiedPrefix = "Last updated from sources: "
	dateLayout     = "2006-01-02"
)

// Build derives the user-facing citation for a passage. A passage without a
// verification date is stamped with now's UTC date.
func Build(p domain.Passage, now time.Time) (domain.Citation, error) {
	if strings.TrimSpace(p.URL) == "" {
		return domain.Citation{}, domain.ErrMissingURL
	}
	verified := p.LastVerified
	if verified == "" {
		verified = now.UTC().Format(dateLayout)
	}
	text := p.Scheme
	if text == "" {
		text = defaultText
	}
	return domain.Citation{
		Text:         text,
		URL:          p.URL,
		LastVerified: verifiedPrefix + verified,
	}, nil
}

// BuildAll builds one citation per passage, preserving order.
func BuildAll(passages []domain.Passage, now time.Time) ([]domain.Citation, error) {
	out := make([]domain.Citation, 0, len(passages))
	for _, p := range passages {
		c, err := Build(p, now)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
