package cli

import "streak-quiz-service/internal/domain"

// sampleItems provides a small country dataset so the server runs without a
// database; swap in the Postgres loader for real deployments.
func sampleItems() []domain.Item {
	return []domain.Item{
		{ID: "fr", Name: "France", Tier: domain.TierEasy},
		{ID: "it", Name: "Italy", Aliases: []string{"Italia"}, Tier: domain.TierEasy},
		{ID: "de", Name: "Germany", Aliases: []string{"Deutschland"}, Tier: domain.TierEasy},
		{ID: "jp", Name: "Japan", Tier: domain.TierEasy},
		{ID: "br", Name: "Brazil", Aliases: []string{"Brasil"}, Tier: domain.TierEasy},
		{ID: "pt", Name: "Portugal", Tier: domain.TierMedium},
		{ID: "th", Name: "Thailand", Tier: domain.TierMedium},
		{ID: "ua", Name: "Ukraine", Tier: domain.TierMedium},
		{ID: "pe", Name: "Peru", Aliases: []string{"Perú"}, Tier: domain.TierMedium},
		{ID: "kz", Name: "Kazakhstan", Tier: domain.TierHard},
		{ID: "ci", Name: "Ivory Coast", Aliases: []string{"Côte d'Ivoire", "Cote dIvoire"}, Tier: domain.TierHard},
		{ID: "py", Name: "Paraguay", Tier: domain.TierHard},
		{ID: "bj", Name: "Benin", Aliases: []string{"Bénin"}, Tier: domain.TierExpert},
		{ID: "tm", Name: "Turkmenistan", Tier: domain.TierExpert},
		{ID: "km", Name: "Comoros", Aliases: []string{"Komoren"}, Tier: domain.TierExpert},
	}
}
