package edgar

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// tickerMap resolves FinanceBench company names to ticker symbols.
var tickerMap = map[string]string{
	"3M":              "MMM",
	"ADOBE":           "ADBE",
	"AES":             "AES",
	"AMAZON":          "AMZN",
	"AMD":             "AMD",
	"AMCOR":           "AMCR",
	"AMERICANEXPRESS": "AXP",
	"AMGEN":           "AMGN",
	"APPLE":           "AAPL",
	"AT&T":            "T",
	"BESTBUY":         "BBY",
	"BLOCK":           "SQ",
	"BOEING":          "BA",
	"BOOKING":         "BKNG",
	"COCACOLA":        "KO",
	"COSTCO":          "COST",
	"CVSHEALTH":       "CVS",
	"GENERALMOTORS":   "GM",
	"GOOGLE":          "GOOGL",
	"HOMEDEPOT":       "HD",
	"HONEYWELL":       "HON",
	"HP":              "HPQ",
	"INTEL":           "INTC",
	"JNJ":             "JNJ",
	"JPMORGAN":        "JPM",
	"LOCKHEEDMARTIN":  "LMT",
	"LOWES":           "LOW",
	"MASTERCARD":      "MA",
	"MCDONALDS":       "MCD",
	"META":            "META",
	"MICROSOFT":       "MSFT",
	"NETFLIX":         "NFLX",
	"NIKE":            "NKE",
	"NVIDIA":          "NVDA",
	"ORACLE":          "ORCL",
	"PAYPAL":          "PYPL",
	"PEPSICO":         "PEP",
	"PFIZER":          "PFE",
	"SALESFORCE":      "CRM",
	"STARBUCKS":       "SBUX",
	"TARGET":          "TGT",
	"TESLA":           "TSLA",
	"ULTA":            "ULTA",
	"UPS":             "UPS",
	"VERIZON":         "VZ",
	"VISA":            "V",
	"WALMART":         "WMT",
	"WALTDISNEY":      "DIS",
	"WELLSFARGO":      "WFC",
}

// Requirement identifies one filing to download.
type Requirement struct {
	Company string
	Ticker  string
	Year    int
}

// ParseDocName parses FinanceBench document names such as "3M_2018_10K".
func ParseDocName(docName string) (Requirement, error) {
	parts := strings.Split(docName, "_")
	if len(parts) < 3 {
		return Requirement{}, fmt.Errorf("malformed doc name %q", docName)
	}
	company := parts[0]
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return Requirement{}, fmt.Errorf("doc name %q: bad year: %w", docName, err)
	}

	ticker, ok := tickerMap[company]
	if !ok {
		return Requirement{}, fmt.Errorf("no ticker mapping for company %q", company)
	}
	return Requirement{Company: company, Ticker: ticker, Year: year}, nil
}

// LoadManifest reads a file of document names, one per line, and returns
// the deduplicated download requirements. Names that cannot be resolved
// are logged and skipped.
func LoadManifest(path string) ([]Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[Requirement]struct{})
	var reqs []Requirement

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		req, err := ParseDocName(line)
		if err != nil {
			log.Warn().Err(err).Str("doc", line).Msg("skipping manifest entry")
			continue
		}
		if _, dup := seen[req]; dup {
			continue
		}
		seen[req] = struct{}{}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}
