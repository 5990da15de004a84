package country

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

var ErrInvalidResponse = errors.New("invalid response from restcountries API")

// Country is one entry of the dialing-code directory
type Country struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	DialCode string `json:"dialCode"`
	Flag     string `json:"flag"`
}

// restCountry mirrors the fields requested from the restcountries API
type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2 string `json:"cca2"`
	IDD  struct {
		Root     string   `json:"root"`
		Suffixes []string `json:"suffixes"`
	} `json:"idd"`
	Flag string `json:"flag"`
}

// Client fetches the country directory used by the login form's
// dialing-code selector. Successful results are cached for the process
// lifetime; the directory changes rarely enough that staleness is fine.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	cached []Country
}

// NewClient creates a new restcountries API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// List returns countries that have a dialing code, sorted by name and
// deduplicated by dial code (first occurrence wins).
func (c *Client) List(ctx context.Context) ([]Country, error) {
	c.mu.Lock()
	if c.cached != nil {
		out := make([]Country, len(c.cached))
		copy(out, c.cached)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	url := fmt.Sprintf("%s/v3.1/all?fields=name,cca2,idd,flag", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Retry logic with exponential backoff
	var resp *http.Response
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		if attempt < 3 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to fetch countries after 3 attempts: %w", lastErr)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	defer resp.Body.Close()

	var raw []restCountry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	countries := format(raw)

	c.mu.Lock()
	c.cached = countries
	c.mu.Unlock()

	out := make([]Country, len(countries))
	copy(out, countries)
	return out, nil
}

// format filters, maps, sorts and dedupes the raw API entries
func format(raw []restCountry) []Country {
	countries := make([]Country, 0, len(raw))
	for _, rc := range raw {
		if rc.IDD.Root == "" || len(rc.IDD.Suffixes) == 0 {
			continue
		}
		countries = append(countries, Country{
			Name:     rc.Name.Common,
			Code:     rc.CCA2,
			DialCode: rc.IDD.Root + rc.IDD.Suffixes[0],
			Flag:     rc.Flag,
		})
	}

	sort.Slice(countries, func(i, j int) bool {
		return countries[i].Name < countries[j].Name
	})

	seen := make(map[string]bool, len(countries))
	unique := countries[:0]
	for _, country := range countries {
		if seen[country.DialCode] {
			continue
		}
		seen[country.DialCode] = true
		unique = append(unique, country)
	}

	return unique
}

// Fallback is served when the directory cannot be fetched
func Fallback() []Country {
	return []Country{
		{Name: "United States", Code: "US", DialCode: "+1", Flag: "🇺🇸"},
		{Name: "United Kingdom", Code: "GB", DialCode: "+44", Flag: "🇬🇧"},
		{Name: "India", Code: "IN", DialCode: "+91", Flag: "🇮🇳"},
		{Name: "Canada", Code: "CA", DialCode: "+1", Flag: "🇨🇦"},
		{Name: "Australia", Code: "AU", DialCode: "+61", Flag: "🇦🇺"},
	}
}
