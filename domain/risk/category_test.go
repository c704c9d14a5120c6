package risk

import "testing"

func TestClassify_Weather(t *testing.T) {
	if c := Classify("rain in NYC above 1 inch"); c != CategoryWeather {
		t.Errorf("Classify() = %s, want weather", c)
	}
}

func TestClassify_GasFee(t *testing.T) {
	if c := Classify("gas fee above 100 gwei"); c != CategoryGasFee {
		t.Errorf("Classify() = %s, want gas-fee", c)
	}
}

func TestClassify_TieBreaksToCryptoPrice(t *testing.T) {
	if c := Classify("something with no recognizable keywords at all"); c != CategoryCryptoPrice {
		t.Errorf("Classify() = %s, want crypto-price on a tie", c)
	}
}
