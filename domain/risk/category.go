package risk

import "strings"

// Category is one of the five coverage categories the historical-frequency
// fetchers specialize for (spec §4.3 step 3).
type Category string

const (
	CategoryWeather      Category = "weather"
	CategoryCryptoPrice  Category = "crypto-price"
	CategoryGasFee       Category = "gas-fee"
	CategoryDefiProtocol Category = "defi-protocol"
	CategoryOnChainEvent Category = "on-chain-event"
)

var categoryKeywords = map[Category][]string{
	CategoryWeather:      {"rain", "weather", "temperature", "snow", "heat", "wind", "storm", "precipitation", "humidity"},
	CategoryCryptoPrice:  {"price", "btc", "eth", "bitcoin", "ethereum", "crash", "pump", "dump", "token", "coin"},
	CategoryGasFee:       {"gas", "gwei", "fee", "network fee"},
	CategoryDefiProtocol: {"defi", "protocol", "hack", "exploit", "depeg", "tvl", "lending", "liquidity"},
	CategoryOnChainEvent: {"oracle", "validator", "slashing", "fork", "downtime", "outage", "reorg"},
}

// Classify scores description against each category's keyword list and
// returns the highest-scoring category. Ties resolve to crypto-price (spec
// §4.3 step 3).
func Classify(description string) Category {
	lower := normalizeForMatch(description)

	order := []Category{CategoryWeather, CategoryCryptoPrice, CategoryGasFee, CategoryDefiProtocol, CategoryOnChainEvent}
	scores := make(map[Category]int, len(order))
	maxScore := 0
	for _, cat := range order {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if containsWord(lower, kw) {
				score++
			}
		}
		scores[cat] = score
		if score > maxScore {
			maxScore = score
		}
	}

	if scores[CategoryCryptoPrice] == maxScore {
		return CategoryCryptoPrice
	}
	for _, cat := range order {
		if scores[cat] == maxScore {
			return cat
		}
	}
	return CategoryCryptoPrice
}

func normalizeForMatch(s string) string {
	return strings.ToLower(s)
}

func containsWord(haystack, needle string) bool {
	return strings.Contains(haystack, strings.ToLower(needle))
}
