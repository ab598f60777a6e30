// Package sparql talks to a SPARQL 1.1 endpoint over the SPARQL Protocol and
// renders the filter clauses injected into query templates.
package sparql

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ontomaint/internal/domain"
)

var _ domain.GraphStore = (*Client)(nil)

const (
	mediaResultsJSON = "application/sparql-results+json"
	mediaNTriples    = "application/n-triples"

	// DefaultInsertBatch caps the number of triples sent in one INSERT DATA request.
	DefaultInsertBatch = 5000
)

// Options configures a Client.
type Options struct {
	QueryURL    string
	UpdateURL   string // defaults to QueryURL
	User        string
	Password    string
	Timeout     time.Duration
	InsertBatch int
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client is a GraphStore backed by a remote SPARQL 1.1 service.
type Client struct {
	queryURL  string
	updateURL string
	user      string
	password  string
	batch     int
	http      *http.Client
	logger    *slog.Logger
}

// NewClient creates a Client. QueryURL is required.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.QueryURL) == "" {
		return nil, domain.ErrValidation("sparql query endpoint is required")
	}
	if _, err := url.ParseRequestURI(opts.QueryURL); err != nil {
		return nil, domain.ErrValidation("invalid sparql query endpoint %q: %v", opts.QueryURL, err)
	}
	updateURL := opts.UpdateURL
	if updateURL == "" {
		updateURL = opts.QueryURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	batch := opts.InsertBatch
	if batch <= 0 {
		batch = DefaultInsertBatch
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		queryURL:  opts.QueryURL,
		updateURL: updateURL,
		user:      opts.User,
		password:  opts.Password,
		batch:     batch,
		http:      hc,
		logger:    logger,
	}, nil
}

// Select evaluates a query and returns its solutions. SELECT and ASK results
// arrive as SPARQL JSON; CONSTRUCT and DESCRIBE results arrive as N-Triples
// and are returned as subject/predicate/object rows.
func (c *Client) Select(ctx context.Context, query string) (*domain.ResultSet, error) {
	form := url.Values{"query": {query}}
	resp, err := c.post(ctx, c.queryURL, form, mediaResultsJSON+", "+mediaNTriples+";q=0.9")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch mediaType {
	case mediaNTriples, "text/turtle":
		return decodeGraphResult(resp.Body, mediaType)
	case "text/plain", "":
		// Some endpoints label JSON results as plain text.
		body := bufio.NewReader(resp.Body)
		if looksLikeJSON(body) {
			return decodeResultsJSON(body)
		}
		return decodeGraphResult(body, mediaNTriples)
	default:
		return decodeResultsJSON(resp.Body)
	}
}

// looksLikeJSON reports whether the first non-space byte of r opens a JSON
// object. It does not consume the body.
func looksLikeJSON(r *bufio.Reader) bool {
	for n := 64; ; n *= 2 {
		buf, err := r.Peek(n)
		if trimmed := bytes.TrimLeft(buf, " \t\r\n"); len(trimmed) > 0 {
			return trimmed[0] == '{'
		}
		if err != nil || n >= r.Size() {
			return false
		}
	}
}

// Insert adds triples with INSERT DATA, in batches. Triples sharing a blank
// node are sent in the same request.
func (c *Client) Insert(ctx context.Context, triples []domain.Triple) error {
	for _, batch := range insertBatches(triples, c.batch) {
		if err := c.Update(ctx, insertData(batch)); err != nil {
			return err
		}
	}
	return nil
}

// Update executes a SPARQL update request.
func (c *Client) Update(ctx context.Context, update string) error {
	resp, err := c.post(ctx, c.updateURL, url.Values{"update": {update}}, "*/*")
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Triples returns every triple in the default graph.
func (c *Client) Triples(ctx context.Context) ([]domain.Triple, error) {
	rs, err := c.Select(ctx, "SELECT ?s ?p ?o WHERE { ?s ?p ?o }")
	if err != nil {
		return nil, fmt.Errorf("fetch triples: %w", err)
	}
	out := make([]domain.Triple, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		s, p, o := row.At(0), row.At(1), row.At(2)
		if s == nil || p == nil || o == nil {
			continue
		}
		out = append(out, domain.Triple{S: *s, P: *p, O: *o})
	}
	return out, nil
}

// Count returns the number of triples in the default graph.
func (c *Client) Count(ctx context.Context) (int, error) {
	rs, err := c.Select(ctx, "SELECT (COUNT(*) AS ?n) WHERE { ?s ?p ?o }")
	if err != nil {
		return 0, fmt.Errorf("count triples: %w", err)
	}
	cell := rs.Rows
	if len(cell) == 0 || cell[0].At(0) == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(cell[0].At(0).Value)
	if err != nil {
		return 0, fmt.Errorf("count triples: unexpected value %q", cell[0].At(0).Value)
	}
	return n, nil
}

// Clear removes every triple from the default graph.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.Update(ctx, "CLEAR DEFAULT"); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build sparql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("sparql request: %w", err)
		}
		return nil, fmt.Errorf("sparql endpoint %s: %w", endpoint, err)
	}
	c.logger.Debug("sparql request", "endpoint", endpoint, "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

// statusError turns a non-2xx response into a QueryError carrying the
// service's own message.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return domain.ErrQuery("HTTP %d: %s", resp.StatusCode, msg)
}

func insertData(triples []domain.Triple) string {
	var b strings.Builder
	b.WriteString("INSERT DATA {\n")
	for _, t := range triples {
		b.WriteString("  ")
		b.WriteString(t.NTriples())
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return b.String()
}
