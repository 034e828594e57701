// Package edgar downloads 10-K filings from SEC EDGAR into the directory
// layout the batch ingester expects.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultWWWBaseURL  = "https://www.sec.gov"
	defaultDataBaseURL = "https://data.sec.gov"
)

// Client fetches filing metadata and documents from SEC EDGAR. The SEC
// requires a User-Agent identifying the caller with a contact email.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	wwwBaseURL  string
	dataBaseURL string

	ciks map[string]int // ticker -> CIK, lazily loaded
}

func NewClient(email string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		userAgent:   "OrionFinancialAI " + email,
		wwwBaseURL:  defaultWWWBaseURL,
		dataBaseURL: defaultDataBaseURL,
	}
}

type companyTicker struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// ResolveCIK maps a ticker symbol to its SEC Central Index Key.
func (c *Client) ResolveCIK(ctx context.Context, ticker string) (int, error) {
	if c.ciks == nil {
		var listing map[string]companyTicker
		if err := c.getJSON(ctx, c.wwwBaseURL+"/files/company_tickers.json", &listing); err != nil {
			return 0, fmt.Errorf("fetch company tickers: %w", err)
		}
		c.ciks = make(map[string]int, len(listing))
		for _, entry := range listing {
			c.ciks[strings.ToUpper(entry.Ticker)] = entry.CIK
		}
	}

	cik, ok := c.ciks[strings.ToUpper(ticker)]
	if !ok {
		return 0, fmt.Errorf("no CIK found for ticker %s", ticker)
	}
	return cik, nil
}

type submissions struct {
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// Download10K fetches the 10-K a company filed in the given calendar year
// and writes it under outDir/TICKER/10-K/ACCESSION/. It returns the path
// of the saved document.
//
// 10-Ks for a fiscal year are often filed the following calendar year;
// callers pass the filing year, matching how the manifest is built.
func (c *Client) Download10K(ctx context.Context, ticker string, year int, outDir string) (string, error) {
	ticker = strings.ToUpper(ticker)
	cik, err := c.ResolveCIK(ctx, ticker)
	if err != nil {
		return "", err
	}

	var subs submissions
	url := fmt.Sprintf("%s/submissions/CIK%010d.json", c.dataBaseURL, cik)
	if err := c.getJSON(ctx, url, &subs); err != nil {
		return "", fmt.Errorf("fetch submissions for %s: %w", ticker, err)
	}

	recent := subs.Filings.Recent
	prefix := fmt.Sprintf("%d-", year)
	// The recent arrays are parallel; a truncated response must not panic.
	n := min(len(recent.Form), len(recent.FilingDate), len(recent.AccessionNumber), len(recent.PrimaryDocument))
	for i := 0; i < n; i++ {
		if recent.Form[i] != "10-K" || !strings.HasPrefix(recent.FilingDate[i], prefix) {
			continue
		}
		accession := recent.AccessionNumber[i]
		primary := recent.PrimaryDocument[i]

		docURL := fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s",
			c.wwwBaseURL, cik, strings.ReplaceAll(accession, "-", ""), primary)

		destDir := filepath.Join(outDir, ticker, "10-K", accession)
		dest := filepath.Join(destDir, "primary-document"+filepath.Ext(primary))
		if err := c.downloadFile(ctx, docURL, destDir, dest); err != nil {
			return "", err
		}

		log.Info().Str("ticker", ticker).Int("year", year).Str("path", dest).Msg("downloaded filing")
		return dest, nil
	}

	return "", fmt.Errorf("no 10-K filed by %s in %d", ticker, year)
}

func (c *Client) downloadFile(ctx context.Context, url, destDir, dest string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
