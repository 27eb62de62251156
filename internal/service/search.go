package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var allowedTimelimits = []string{"d", "w", "m", "y"}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

type SearchResult struct {
	Title string
	Href  string
	Body  string
}

// DuckDuckGoSearch scrapes the HTML endpoint, so it needs a polite delay
// between requests or the service starts returning 403.
type DuckDuckGoSearch struct {
	client    *http.Client
	rateLimit time.Duration
}

func NewDuckDuckGoSearch(client *http.Client, rateLimit time.Duration) *DuckDuckGoSearch {
	if rateLimit == 0 {
		rateLimit = 1 * time.Second
	}
	return &DuckDuckGoSearch{
		client:    client,
		rateLimit: rateLimit,
	}
}

func (d *DuckDuckGoSearch) Text(keywords, region, timeLimit string, maxResults int) ([]SearchResult, error) {
	if keywords == "" {
		return nil, errors.New("keywords is mandatory")
	}

	if maxResults == 0 {
		maxResults = 3
	}

	payload := url.Values{
		"q":  []string{keywords},
		"b":  []string{""},
		"kl": []string{region},
	}
	if timeLimit == "" || slices.Contains(allowedTimelimits, timeLimit) {
		payload.Set("df", timeLimit)
	}

	seen := make(map[string]bool)
	var results []SearchResult

	for range 5 {
		resp, err := d.getURL("POST", "https://html.duckduckgo.com/html", payload)
		if err != nil {
			return nil, err
		}

		if bytes.Contains(resp, []byte("No results.")) {
			return results, nil
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp))
		if err != nil {
			return nil, err
		}

		doc.Find("div.result").Each(func(i int, s *goquery.Selection) {
			if len(results) >= maxResults {
				return
			}
			link := s.Find("a.result__a")
			href, exists := link.Attr("href")
			if !exists {
				return
			}

			if href != "" && !seen[href] &&
				!strings.HasPrefix(href, "http://www.google.com/search?q=") &&
				!strings.HasPrefix(href, "https://duckduckgo.com/y.js?ad_domain") {

				seen[href] = true
				results = append(results, SearchResult{
					Title: normalize(link.Text()),
					Href:  normalizeURL(href),
					Body:  normalize(s.Find("a.result__snippet").Text()),
				})
			}
		})

		if len(results) >= maxResults {
			break
		}

		nextPage := doc.Find("div.nav-link").Last()
		if nextPage.Length() == 0 {
			break
		}

		nextPage.Find("input[type=hidden]").Each(func(i int, s *goquery.Selection) {
			name, _ := s.Attr("name")
			value, _ := s.Attr("value")
			if name != "" {
				payload.Set(name, value)
			}
		})
	}

	return results, nil
}

func (d *DuckDuckGoSearch) getURL(method string, urlStr string, params url.Values) ([]byte, error) {
	time.Sleep(d.rateLimit)

	req, err := http.NewRequest(method, urlStr, nil)
	if err != nil {
		return nil, err
	}

	req.URL.RawQuery = params.Encode()
	req.Header.Set("Referer", "https://duckduckgo.com/")
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])

	resp, err := d.client.Do(req)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			return nil, fmt.Errorf("%s timeout: %v", urlStr, err)
		}
		return nil, fmt.Errorf("%s request failed: %v", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%s ratelimit: status %d", urlStr, resp.StatusCode)
		}
		return nil, fmt.Errorf("%s failed: status %d", urlStr, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func normalizeURL(urlStr string) string {
	if urlStr == "" {
		return ""
	}
	unescaped, err := url.QueryUnescape(urlStr)
	if err != nil {
		return urlStr
	}
	return strings.ReplaceAll(unescaped, " ", "+")
}

func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
