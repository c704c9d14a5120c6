package commerce

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ServiceRequest is the normalized shape a commerce job is parsed into,
// regardless of whether the input was structured JSON or free text (spec
// §4.6 step 1).
type ServiceRequest struct {
	CoverageAmount float64
	DurationDays   int
	Protocol       string
	CoverageType   string
	RawDescription string
}

// structuredPayload is the accepted JSON shape for a pre-structured job.
type structuredPayload struct {
	CoverageAmount float64 `json:"coverage_amount"`
	DurationDays   int     `json:"duration_days"`
	Protocol       string  `json:"protocol"`
	CoverageType   string  `json:"coverage_type"`
	Description    string  `json:"description"`
}

var (
	amountPattern   = regexp.MustCompile(`(?i)(\$|usdc|usdt|dai)?\s*(\d+(?:\.\d+)?)\s*(usdc|usdt|dai|dollars?)?`)
	durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(day|days|week|weeks|month|months)`)

	protocolKeywords = map[string][]string{
		"uniswap":  {"uniswap", "uni"},
		"aave":     {"aave"},
		"compound": {"compound"},
		"curve":    {"curve"},
		"ethereum": {"ethereum", "eth"},
	}
	coverageTypeKeywords = map[string][]string{
		"depeg":        {"depeg", "stablecoin"},
		"exploit":      {"hack", "exploit", "drain"},
		"price-drop":   {"price drop", "crash", "price crash", "drops below", "drop below"},
		"gas-spike":    {"gas spike", "gas fee", "gwei", "gas above", "gas below"},
		"downtime":     {"downtime", "outage"},
	}
)

// Parse accepts either a structured JSON payload or free text and returns a
// normalized ServiceRequest. Free-text parsing extracts amount, duration,
// protocol, and coverage-type by keyword dictionaries (spec §4.6 step 1).
func Parse(input string) (ServiceRequest, error) {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") {
		var p structuredPayload
		if err := json.Unmarshal([]byte(trimmed), &p); err == nil {
			return ServiceRequest{
				CoverageAmount: p.CoverageAmount,
				DurationDays:   p.DurationDays,
				Protocol:       p.Protocol,
				CoverageType:   p.CoverageType,
				RawDescription: p.Description,
			}, nil
		}
	}

	return parseFreeText(trimmed), nil
}

func parseFreeText(text string) ServiceRequest {
	lower := strings.ToLower(text)

	req := ServiceRequest{RawDescription: text}

	if m := amountPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			req.CoverageAmount = v
		}
	}

	if m := durationPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case strings.HasPrefix(m[2], "week"):
			req.DurationDays = n * 7
		case strings.HasPrefix(m[2], "month"):
			req.DurationDays = n * 30
		default:
			req.DurationDays = n
		}
	}

	for protocol, keywords := range protocolKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				req.Protocol = protocol
				break
			}
		}
		if req.Protocol != "" {
			break
		}
	}

	for coverageType, keywords := range coverageTypeKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				req.CoverageType = coverageType
				break
			}
		}
		if req.CoverageType != "" {
			break
		}
	}

	return req
}

// Validate enforces spec §4.6 step 2: amount ≥ 10, duration in 1..365
// days, non-empty coverage type.
func (r ServiceRequest) Validate() error {
	if r.CoverageAmount < 10 {
		return &parseError{"coverage amount must be at least 10"}
	}
	if r.DurationDays < 1 || r.DurationDays > 365 {
		return &parseError{"duration must be between 1 and 365 days"}
	}
	if r.CoverageType == "" {
		return &parseError{"could not determine a coverage type from the request"}
	}
	return nil
}

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
