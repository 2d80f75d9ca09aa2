package config

import "fundfaq/internal/domain"

// DefaultSources returns the scheme pages scraped when no sources are configured.
func DefaultSources() []domain.SchemePage {
	return []domain.SchemePage{
		{
			Scheme:   "HDFC ELSS Tax Saver Fund Direct Plan Growth",
			Category: "ELSS",
			URL:      "https://groww.in/mutual-funds/hdfc-elss-tax-saver-fund-direct-plan-growth",
		},
		{
			Scheme:   "HDFC Flexi Cap Fund Direct Plan Growth",
			Category: "Flexi Cap",
			// legacy equity-fund slug
			URL:                   "https://groww.in/mutual-funds/hdfc-equity-fund-direct-growth",
			AugmentFundManagement: true,
		},
		{
			Scheme:   "HDFC Large and Mid Cap Fund Direct Growth",
			Category: "Large & Mid Cap",
			URL:      "https://groww.in/mutual-funds/hdfc-large-and-mid-cap-fund-direct-growth",
		},
		{
			Scheme:   "HDFC Small Cap Fund Direct Growth",
			Category: "Small Cap",
			URL:      "https://groww.in/mutual-funds/hdfc-small-cap-fund-direct-growth",
		},
		{
			Scheme:   "HDFC Multi Cap Fund Direct Growth",
			Category: "Multi Cap",
			URL:      "https://groww.in/mutual-funds/hdfc-multi-cap-fund-direct-growth",
		},
		{
			Scheme:   "Groww Capital Gains Statement Guide",
			Category: "Help Center",
			URL:      "https://groww.in/blog/how-to-get-capital-gains-statement-for-mutual-fund-investments",
		},
	}
}
