// Package elastic is an Elasticsearch/OpenSearch client for the products index.
package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/tansaku/internal/fuzzy"
	opensearch "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// DefaultIndex is the index searched when none is configured.
const DefaultIndex = "products"

// Config locates the cluster and index.
type Config struct {
	URL      string
	Index    string
	Username string
	Password string
}

// Client searches and seeds one index.
type Client struct {
	api   *opensearchapi.Client
	index string
}

// Error is a non-2xx response from the cluster.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the cluster.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == 404
}

// NewClient builds a client. No request is sent; an unreachable cluster surfaces on
// the first call.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elastic url is required")
	}
	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}
	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:    []string{cfg.URL},
			Username:     cfg.Username,
			Password:     cfg.Password,
			DisableRetry: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elastic client: %w", err)
	}
	return &Client{api: api, index: index}, nil
}

// Index returns the index name the client targets.
func (c *Client) Index() string { return c.index }

type multiMatchBody struct {
	Size  int `json:"size"`
	Query struct {
		MultiMatch struct {
			Query     string   `json:"query"`
			Fields    []string `json:"fields"`
			Fuzziness string   `json:"fuzziness"`
			Operator  string   `json:"operator"`
		} `json:"multi_match"`
	} `json:"query"`
}

// SearchBody renders q as a multi_match search request body.
func SearchBody(q fuzzy.MultiMatch) ([]byte, error) {
	var body multiMatchBody
	body.Size = q.Size
	mm := &body.Query.MultiMatch
	mm.Query = q.Query
	mm.Fuzziness = q.Fuzziness
	mm.Operator = q.Operator
	mm.Fields = make([]string, len(q.Fields))
	for i, f := range q.Fields {
		mm.Fields[i] = f.String()
	}
	return json.Marshal(body)
}

type productSource struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MultiMatch runs q against the index and returns its hits in index order.
func (c *Client) MultiMatch(ctx context.Context, q fuzzy.MultiMatch) ([]fuzzy.Hit, error) {
	body, err := SearchBody(q)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search body: %w", err)
	}

	resp, err := c.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{c.index},
		Body:    strings.NewReader(string(body)),
	})
	if err != nil {
		return nil, wrapError("search", rawResponse(resp), err)
	}

	hits := make([]fuzzy.Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		var src productSource
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &src); err != nil {
				return nil, fmt.Errorf("failed to decode hit %s: %w", h.ID, err)
			}
		}
		hits = append(hits, fuzzy.Hit{
			ID:          h.ID,
			Title:       src.Title,
			Description: src.Description,
			Score:       float64(h.Score),
		})
	}
	return hits, nil
}

// rawResponse returns the HTTP response behind an API response, if any.
func rawResponse[T any, P interface {
	*T
	Inspect() opensearchapi.Inspect
}](resp P) *opensearch.Response {
	if resp == nil {
		return nil
	}
	return resp.Inspect().Response
}

// wrapError turns a failed call into an *Error when the cluster answered, and a plain
// wrapped error when it could not be reached.
func wrapError(op string, r *opensearch.Response, err error) error {
	if r != nil {
		return &Error{Op: op, StatusCode: r.StatusCode, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
