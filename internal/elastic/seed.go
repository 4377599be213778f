package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// IndexSettings creates the products index: titles are indexed as 2-20 character
// ngrams of letters and digits and searched with the standard analyzer.
var IndexSettings = map[string]any{
	"settings": map[string]any{
		"index.max_ngram_diff": 18,
		"analysis": map[string]any{
			"analyzer": map[string]any{
				"autocomplete": map[string]any{
					"type":      "custom",
					"tokenizer": "ngram_tokenizer",
					"filter":    []string{"lowercase"},
				},
			},
			"tokenizer": map[string]any{
				"ngram_tokenizer": map[string]any{
					"type":        "ngram",
					"min_gram":    2,
					"max_gram":    20,
					"token_chars": []string{"letter", "digit"},
				},
			},
		},
	},
	"mappings": map[string]any{
		"properties": map[string]any{
			"title":       map[string]any{"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"},
			"description": map[string]any{"type": "text"},
			"brand":       map[string]any{"type": "keyword"},
			"category":    map[string]any{"type": "keyword"},
		},
	},
}

// RecreateIndex deletes the index if it exists and creates it with IndexSettings.
func (c *Client) RecreateIndex(ctx context.Context) error {
	delResp, err := c.api.Indices.Delete(ctx, opensearchapi.IndicesDeleteReq{
		Indices: []string{c.index},
	})
	if err != nil {
		if err := wrapError("delete index", rawResponse(delResp), err); !IsNotFound(err) {
			return err
		}
	}

	body, err := json.Marshal(IndexSettings)
	if err != nil {
		return fmt.Errorf("failed to marshal index settings: %w", err)
	}
	createResp, err := c.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: c.index,
		Body:  strings.NewReader(string(body)),
	})
	if err != nil {
		return wrapError("create index", rawResponse(createResp), err)
	}
	return nil
}

// BulkBody renders products as a newline-delimited bulk index request. Products
// without an id get a random one.
func BulkBody(index string, products []models.Product) (string, error) {
	var b strings.Builder
	for _, p := range products {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		action, err := json.Marshal(map[string]any{
			"index": map[string]string{"_index": index, "_id": id},
		})
		if err != nil {
			return "", err
		}
		p.ID = ""
		doc, err := json.Marshal(p)
		if err != nil {
			return "", err
		}
		b.Write(action)
		b.WriteByte('\n')
		b.Write(doc)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// BulkIndex indexes products and refreshes the index so they are searchable on return.
func (c *Client) BulkIndex(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	body, err := BulkBody(c.index, products)
	if err != nil {
		return fmt.Errorf("failed to build bulk body: %w", err)
	}

	resp, err := c.api.Bulk(ctx, opensearchapi.BulkReq{
		Body: strings.NewReader(body),
	})
	if err != nil {
		return wrapError("bulk", rawResponse(resp), err)
	}
	if resp.Errors {
		return fmt.Errorf("bulk: some documents were rejected")
	}

	refreshResp, err := c.api.Indices.Refresh(ctx, &opensearchapi.IndicesRefreshReq{
		Indices: []string{c.index},
	})
	if err != nil {
		return wrapError("refresh", rawResponse(refreshResp), err)
	}
	return nil
}
