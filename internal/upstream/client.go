package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/fhir"
)

const maxBodyBytes = 64 << 20

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
	Logger   zerolog.Logger
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client reads resource collections from a FHIR REST endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func New(opts Options) *Client {
	log := opts.Logger.With().Str("component", "upstream").Str("base_url", opts.BaseURL).Logger()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient = &http.Client{Timeout: timeout}
	if opts.Transport != nil {
		rc.HTTPClient.Transport = opts.Transport
	}
	rc.Logger = leveledLogger{log}
	// hand the final response back so status classification stays here
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.CheckRetry = checkRetry

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    rc.StandardClient(),
		log:     log,
	}
}

// checkRetry retries what FetchError marks retryable: transport failures
// and 5xx. Every 4xx, 429 included, is final.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return resp.StatusCode >= http.StatusInternalServerError, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Search runs a search for resourceType and follows "next" links until the
// last page. Entries are returned in server order without deduplication.
func (c *Client) Search(ctx context.Context, resourceType, filter string, pageSize int) ([]map[string]any, error) {
	first, err := c.searchURL(resourceType, filter, pageSize)
	if err != nil {
		return nil, &FetchError{ResourceType: resourceType, URL: c.baseURL, Err: err}
	}

	var (
		out     []map[string]any
		visited = map[string]bool{}
		next    = first
		page    int
	)
	for next != "" {
		if visited[next] {
			return nil, &FetchError{
				ResourceType: resourceType,
				URL:          next,
				Err:          fmt.Errorf("next link revisits a page already read"),
			}
		}
		visited[next] = true
		page++

		body, err := c.get(ctx, resourceType, next)
		if err != nil {
			return nil, err
		}
		bundle, err := fhir.ParseBundle(body)
		if err != nil {
			return nil, &FetchError{ResourceType: resourceType, URL: next, Err: err}
		}
		resources, err := bundle.Resources()
		if err != nil {
			return nil, &FetchError{ResourceType: resourceType, URL: next, Err: err}
		}
		out = append(out, resources...)

		c.log.Debug().
			Str("type", resourceType).
			Int("page", page).
			Int("entries", len(resources)).
			Msg("fetched page")

		if next, err = c.resolve(bundle.NextLink()); err != nil {
			return nil, &FetchError{ResourceType: resourceType, URL: bundle.NextLink(), Err: err}
		}
	}
	return out, nil
}

// Read fetches a single resource by id.
func (c *Client) Read(ctx context.Context, resourceType, id string) (map[string]any, error) {
	u := c.baseURL + "/" + fhir.FormatReference(resourceType, url.PathEscape(id))
	body, err := c.get(ctx, resourceType, u)
	if err != nil {
		return nil, err
	}
	res, err := fhir.DecodeResource(body)
	if err != nil {
		return nil, &FetchError{ResourceType: resourceType, URL: u, Err: err}
	}
	return res, nil
}

func (c *Client) searchURL(resourceType, filter string, pageSize int) (string, error) {
	q, err := url.ParseQuery(strings.TrimPrefix(filter, "?"))
	if err != nil {
		return "", fmt.Errorf("parse filter %q: %w", filter, err)
	}
	if pageSize > 0 {
		q.Set("_count", strconv.Itoa(pageSize))
	}
	u := c.baseURL + "/" + resourceType
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u, nil
}

// resolve turns a possibly relative next link into an absolute URL.
func (c *Client) resolve(link string) (string, error) {
	if link == "" {
		return "", nil
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return link, nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) get(ctx context.Context, resourceType, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{ResourceType: resourceType, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/fhir+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(resourceType, u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(resourceType, u, err)
	}
	if resp.StatusCode >= 400 {
		return nil, statusError(resourceType, u, resp.StatusCode, snippet(body))
	}
	return body, nil
}

func snippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.event(l.log.Error(), msg, kv) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.event(l.log.Debug(), msg, kv) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.event(l.log.Trace(), msg, kv) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.event(l.log.Warn(), msg, kv) }

func (l leveledLogger) event(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
