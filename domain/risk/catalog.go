package risk

// Product is one entry in the fixed insurance-product catalog the Commerce
// Job Handler matches inbound requests against (spec §4.3).
type Product struct {
	ID                    string
	Category              Category
	DisplayName           string
	MinCoverage           float64
	MaxCoverage           float64
	MinDeadlineDays       int
	MaxDeadlineDays       int
	BaseFailureProbability float64
	EvidenceSourceURL     string
	Keywords              []string
}

// Catalog is the fixed ~10-product registry (spec §4.3).
var Catalog = []Product{
	{
		ID: "weather-rain-nyc", Category: CategoryWeather, DisplayName: "NYC Rain Coverage",
		MinCoverage: 50, MaxCoverage: 5000, MinDeadlineDays: 1, MaxDeadlineDays: 30,
		BaseFailureProbability: 0.25, EvidenceSourceURL: "https://api.weather.gov",
		Keywords: []string{"rain", "weather", "nyc", "new york", "precipitation"},
	},
	{
		ID: "weather-heat-miami", Category: CategoryWeather, DisplayName: "Miami Heatwave Coverage",
		MinCoverage: 50, MaxCoverage: 5000, MinDeadlineDays: 1, MaxDeadlineDays: 30,
		BaseFailureProbability: 0.15, EvidenceSourceURL: "https://api.weather.gov",
		Keywords: []string{"heat", "temperature", "miami", "hot"},
	},
	{
		ID: "crypto-eth-price-drop", Category: CategoryCryptoPrice, DisplayName: "ETH Price Drop Coverage",
		MinCoverage: 50, MaxCoverage: 50000, MinDeadlineDays: 1, MaxDeadlineDays: 90,
		BaseFailureProbability: 0.08, EvidenceSourceURL: "https://api.coingecko.com/api/v3/coins/ethereum",
		Keywords: []string{"eth", "ethereum", "price", "drop", "crash"},
	},
	{
		ID: "crypto-btc-price-drop", Category: CategoryCryptoPrice, DisplayName: "BTC Price Drop Coverage",
		MinCoverage: 50, MaxCoverage: 50000, MinDeadlineDays: 1, MaxDeadlineDays: 90,
		BaseFailureProbability: 0.07, EvidenceSourceURL: "https://api.coingecko.com/api/v3/coins/bitcoin",
		Keywords: []string{"btc", "bitcoin", "price", "drop", "crash"},
	},
	{
		ID: "gas-fee-spike", Category: CategoryGasFee, DisplayName: "Ethereum Gas Spike Coverage",
		MinCoverage: 20, MaxCoverage: 10000, MinDeadlineDays: 1, MaxDeadlineDays: 30,
		BaseFailureProbability: 0.1, EvidenceSourceURL: "https://etherscan.io/gastracker",
		Keywords: []string{"gas", "gwei", "fee", "spike"},
	},
	{
		ID: "defi-lending-depeg", Category: CategoryDefiProtocol, DisplayName: "Stablecoin Depeg Coverage",
		MinCoverage: 100, MaxCoverage: 100000, MinDeadlineDays: 7, MaxDeadlineDays: 90,
		BaseFailureProbability: 0.02, EvidenceSourceURL: "https://defillama.com",
		Keywords: []string{"depeg", "stablecoin", "usdc", "usdt", "dai"},
	},
	{
		ID: "defi-protocol-hack", Category: CategoryDefiProtocol, DisplayName: "Protocol Exploit Coverage",
		MinCoverage: 100, MaxCoverage: 100000, MinDeadlineDays: 7, MaxDeadlineDays: 90,
		BaseFailureProbability: 0.03, EvidenceSourceURL: "https://defillama.com/hacks",
		Keywords: []string{"hack", "exploit", "protocol", "defi"},
	},
	{
		ID: "onchain-oracle-failure", Category: CategoryOnChainEvent, DisplayName: "Oracle Downtime Coverage",
		MinCoverage: 50, MaxCoverage: 20000, MinDeadlineDays: 1, MaxDeadlineDays: 60,
		BaseFailureProbability: 0.04, EvidenceSourceURL: "https://chainlink.io",
		Keywords: []string{"oracle", "chainlink", "downtime", "outage"},
	},
	{
		ID: "onchain-validator-slashing", Category: CategoryOnChainEvent, DisplayName: "Validator Slashing Coverage",
		MinCoverage: 50, MaxCoverage: 20000, MinDeadlineDays: 7, MaxDeadlineDays: 90,
		BaseFailureProbability: 0.01, EvidenceSourceURL: "https://beaconcha.in",
		Keywords: []string{"validator", "slashing", "staking"},
	},
	{
		ID: "crypto-volatility-index", Category: CategoryCryptoPrice, DisplayName: "Crypto Volatility Coverage",
		MinCoverage: 50, MaxCoverage: 50000, MinDeadlineDays: 1, MaxDeadlineDays: 90,
		BaseFailureProbability: 0.1, EvidenceSourceURL: "https://api.coingecko.com/api/v3/global",
		Keywords: []string{"volatility", "volatile", "swing"},
	},
}

// MatchProduct returns the catalog entry with the most keyword hits against
// description, or ok=false if nothing matches at all.
func MatchProduct(description string) (Product, bool) {
	lower := normalizeForMatch(description)

	var best Product
	bestScore := 0
	for _, p := range Catalog {
		score := 0
		for _, kw := range p.Keywords {
			if containsWord(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = p
		}
	}
	if bestScore == 0 {
		return Product{}, false
	}
	return best, true
}
