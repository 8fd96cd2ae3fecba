// Package scopus provides a client for the Elsevier Scopus Abstract Retrieval API.
package scopus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/pubmetrics/internal/resilience"
)

// DefaultBaseURL is the production Elsevier API host.
const DefaultBaseURL = "https://api.elsevier.com"

// ErrNotFound is returned when Scopus has no record for the requested EID.
var ErrNotFound = eris.New("scopus: record not found")

// Client retrieves publication metadata from Scopus.
type Client interface {
	// AbstractByEID fetches the abstract record for one Scopus EID.
	AbstractByEID(ctx context.Context, eid string) (*Abstract, error)
}

// Abstract is the subset of an abstract record the metrics pipeline uses.
type Abstract struct {
	EID                string   `json:"eid"`
	Title              string   `json:"title"`
	Authors            []Author `json:"authors"`
	AggregationType    string   `json:"aggregation_type"`
	SubtypeDescription string   `json:"subtype_description"`
	SourceTitle        string   `json:"source_title"`
	Volume             string   `json:"volume"`
	Issue              string   `json:"issue"`
	Publisher          string   `json:"publisher"`
	ISSN               string   `json:"issn"`
	PMID               string   `json:"pmid"`
	DOI                string   `json:"doi"`
	Description        string   `json:"description"`
	Year               string   `json:"year"`
	Month              string   `json:"month"`
	Day                string   `json:"day"`
}

// Author is one entry of the record's author list.
type Author struct {
	AUID        string `json:"auid"`
	Seq         int    `json:"seq"`
	GivenName   string `json:"given_name"`
	Surname     string `json:"surname"`
	IndexedName string `json:"indexed_name"`
}

// Option configures the Scopus client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit limits outbound requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLimiter sets the rate limiter directly.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p resilience.RetryPolicy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithBreaker routes every request through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryPolicy
	breaker *resilience.Breaker
}

// NewClient creates a Scopus client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(2, 2),
		retry:   resilience.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("scopus", "abstract")
	}
	return c
}

func (c *httpClient) AbstractByEID(ctx context.Context, eid string) (*Abstract, error) {
	if eid == "" {
		return nil, eris.New("scopus: empty eid")
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if c.breaker == nil {
			return c.get(ctx, eid)
		}
		return resilience.Call(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
			return c.get(ctx, eid)
		})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "scopus: abstract %s", eid)
	}

	abs, err := parseAbstract(body)
	if err != nil {
		return nil, eris.Wrapf(err, "scopus: abstract %s", eid)
	}
	abs.EID = eid
	return abs, nil
}

// get performs a single rate-limited request and classifies the outcome.
func (c *httpClient) get(ctx context.Context, eid string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "scopus: rate limiter")
		}
	}

	reqURL := fmt.Sprintf("%s/content/abstract/eid/%s", c.baseURL, url.PathEscape(eid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scopus: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-ELS-APIKey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scopus: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, eris.Wrap(err, "scopus: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		te := resilience.NewTransientError(
			eris.Errorf("scopus: status %d: %s", resp.StatusCode, truncate(body, 256)),
			resp.StatusCode,
		)
		te.RetryAfter = retryAfter(resp.Header, time.Now())
		return nil, te
	default:
		return nil, eris.Errorf("scopus: unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}
}

// retryAfter reads Retry-After, falling back to the quota reset epoch
// Elsevier sends on 429 responses.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if d := resilience.ParseRetryAfter(h.Get("Retry-After"), now); d > 0 {
		return d
	}
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if d := time.Unix(reset, 0).Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

type abstractEnvelope struct {
	Response struct {
		Coredata struct {
			Title           text  `json:"dc:title"`
			SubtypeDesc     text  `json:"subtypeDescription"`
			AggregationType text  `json:"prism:aggregationType"`
			PublicationName text  `json:"prism:publicationName"`
			Volume          text  `json:"prism:volume"`
			Issue           text  `json:"prism:issueIdentifier"`
			Publisher       text  `json:"dc:publisher"`
			ISSN            texts `json:"prism:issn"`
			PubmedID        text  `json:"pubmed-id"`
			DOI             text  `json:"prism:doi"`
			Description     text  `json:"dc:description"`
		} `json:"coredata"`
		Authors *struct {
			Author authorList `json:"author"`
		} `json:"authors"`
		Item struct {
			Bibrecord struct {
				Head struct {
					Source struct {
						PublicationDate struct {
							Year  text `json:"year"`
							Month text `json:"month"`
							Day   text `json:"day"`
						} `json:"publicationdate"`
					} `json:"source"`
				} `json:"head"`
			} `json:"bibrecord"`
		} `json:"item"`
	} `json:"abstracts-retrieval-response"`
}

type rawAuthor struct {
	AUID        text `json:"@auid"`
	Seq         text `json:"@seq"`
	GivenName   text `json:"ce:given-name"`
	Surname     text `json:"ce:surname"`
	IndexedName text `json:"ce:indexed-name"`
}

// authorList accepts either a single author object or an array.
type authorList []rawAuthor

func (a *authorList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '[' {
		var arr []rawAuthor
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*a = arr
		return nil
	}
	var single rawAuthor
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*a = []rawAuthor{single}
	return nil
}

func parseAbstract(body []byte) (*Abstract, error) {
	var env abstractEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "unmarshal response")
	}
	r := env.Response
	cd := r.Coredata
	pd := r.Item.Bibrecord.Head.Source.PublicationDate

	abs := &Abstract{
		Title:              string(cd.Title),
		AggregationType:    string(cd.AggregationType),
		SubtypeDescription: string(cd.SubtypeDesc),
		SourceTitle:        string(cd.PublicationName),
		Volume:             string(cd.Volume),
		Issue:              string(cd.Issue),
		Publisher:          string(cd.Publisher),
		ISSN:               cd.ISSN.join(", "),
		PMID:               string(cd.PubmedID),
		DOI:                string(cd.DOI),
		Description:        string(cd.Description),
		Year:               string(pd.Year),
		Month:              string(pd.Month),
		Day:                string(pd.Day),
	}

	if r.Authors != nil {
		for i, ra := range r.Authors.Author {
			seq, err := strconv.Atoi(string(ra.Seq))
			if err != nil {
				seq = i + 1
			}
			abs.Authors = append(abs.Authors, Author{
				AUID:        string(ra.AUID),
				Seq:         seq,
				GivenName:   string(ra.GivenName),
				Surname:     string(ra.Surname),
				IndexedName: string(ra.IndexedName),
			})
		}
		// Scopus usually returns authors in order already; @seq is authoritative.
		sort.SliceStable(abs.Authors, func(i, j int) bool {
			return abs.Authors[i].Seq < abs.Authors[j].Seq
		})
	}
	return abs, nil
}
