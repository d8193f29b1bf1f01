package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirsiprashanth/trigr-payments/internal/config"
	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("firestore: document not found")

// Condition is a single field filter for a structured query.
type Condition struct {
	Field string
	Op    string // "=", "!=", "<", "<=", ">", ">="
	Value interface{}
}

// Document is a query result: the store-assigned document ID plus its decoded
// fields.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// Client is the document store contract the reconciliation core consumes.
type Client interface {
	// GetDocument fetches one document's fields, or ErrNotFound.
	GetDocument(ctx context.Context, collection, documentID string) (map[string]interface{}, error)
	// UpdateDocument patches the given fields, leaving others untouched.
	UpdateDocument(ctx context.Context, collection, documentID string, fields map[string]interface{}) error
	// QueryDocuments runs a filtered, optionally ordered and limited query.
	// Direction is "asc" or "desc".
	QueryDocuments(ctx context.Context, collection string, conditions []Condition, limit int, orderBy, direction string) ([]Document, error)
}

// RequestObserver receives the duration of every store round-trip, keyed by
// operation (get, update, query).
type RequestObserver interface {
	ObserveStoreRequest(op string, seconds float64)
}

// RESTClient talks to the Firestore REST API with a self-signed JWT bearer.
type RESTClient struct {
	projectID  string
	baseURL    string
	httpClient *http.Client
	tokens     *tokenSource
	observer   RequestObserver
	log        *logger.Logger
}

// NewRESTClient builds a client from startup configuration. Credentials are
// taken from config only; nothing is materialized on disk at runtime.
func NewRESTClient(cfg *config.Config, observer RequestObserver, log *logger.Logger) (*RESTClient, error) {
	if cfg.Firebase.ProjectID == "" {
		return nil, errors.New("firestore: project ID is not configured")
	}

	tokens, err := newTokenSource(cfg.Firebase.ClientEmail, cfg.Firebase.PrivateKey)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Firebase.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RESTClient{
		projectID:  cfg.Firebase.ProjectID,
		baseURL:    fmt.Sprintf("https://firestore.googleapis.com/v1/projects/%s/databases/(default)/documents", cfg.Firebase.ProjectID),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		observer:   observer,
		log:        log,
	}, nil
}

// GetDocument fetches a single document. Reads are retried on transient
// failures; a 404 is terminal.
func (c *RESTClient) GetDocument(ctx context.Context, collection, documentID string) (map[string]interface{}, error) {
	var fields map[string]interface{}

	operation := func() error {
		body, status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s/%s", c.baseURL, collection, documentID), nil, "get")
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusOK:
			var doc struct {
				Fields map[string]interface{} `json:"fields"`
			}
			if err := json.Unmarshal(body, &doc); err != nil {
				return backoff.Permanent(fmt.Errorf("firestore: failed to decode document %s/%s: %w", collection, documentID, err))
			}
			fields = decodeRawFields(doc.Fields)
			return nil
		case status == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case status >= 500:
			return fmt.Errorf("firestore: get %s/%s returned status %d", collection, documentID, status)
		default:
			return backoff.Permanent(fmt.Errorf("firestore: get %s/%s returned status %d", collection, documentID, status))
		}
	}

	if err := backoff.Retry(operation, c.readBackoff(ctx)); err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Errorw("Failed to get Firestore document", "collection", collection, "documentID", documentID, "error", err)
		}
		return nil, err
	}

	return fields, nil
}

// UpdateDocument patches the given fields via updateMask. Updates are issued
// exactly once: retrying here could double-apply a reconciliation write.
func (c *RESTClient) UpdateDocument(ctx context.Context, collection, documentID string, fields map[string]interface{}) error {
	params := url.Values{}
	for key := range fields {
		params.Add("updateMask.fieldPaths", key)
	}

	payload, err := json.Marshal(map[string]interface{}{"fields": encodeFields(fields)})
	if err != nil {
		return fmt.Errorf("firestore: failed to encode update for %s/%s: %w", collection, documentID, err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, collection, documentID, params.Encode())
	body, status, err := c.do(ctx, http.MethodPatch, endpoint, payload, "update")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		c.log.Errorw("Failed to update Firestore document",
			"collection", collection,
			"documentID", documentID,
			"statusCode", status,
			"response", string(body),
		)
		return fmt.Errorf("firestore: update %s/%s returned status %d", collection, documentID, status)
	}

	return nil
}

// QueryDocuments runs a structured query against one collection.
func (c *RESTClient) QueryDocuments(ctx context.Context, collection string, conditions []Condition, limit int, orderBy, direction string) ([]Document, error) {
	structuredQuery := map[string]interface{}{
		"from": []map[string]interface{}{{"collectionId": collection}},
	}
	if len(conditions) > 0 {
		structuredQuery["where"] = buildWhere(conditions)
	}
	if orderBy != "" {
		structuredQuery["orderBy"] = []map[string]interface{}{
			{
				"field":     map[string]interface{}{"fieldPath": orderBy},
				"direction": mapDirection(direction),
			},
		}
	}
	if limit > 0 {
		structuredQuery["limit"] = limit
	}

	payload, err := json.Marshal(map[string]interface{}{"structuredQuery": structuredQuery})
	if err != nil {
		return nil, fmt.Errorf("firestore: failed to encode query for %s: %w", collection, err)
	}

	var docs []Document
	operation := func() error {
		body, status, err := c.do(ctx, http.MethodPost, c.baseURL+":runQuery", payload, "query")
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			err := fmt.Errorf("firestore: query on %s returned status %d", collection, status)
			if status >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}

		var results []struct {
			Document *struct {
				Name   string                 `json:"name"`
				Fields map[string]interface{} `json:"fields"`
			} `json:"document"`
		}
		if err := json.Unmarshal(body, &results); err != nil {
			return backoff.Permanent(fmt.Errorf("firestore: failed to decode query results for %s: %w", collection, err))
		}

		docs = docs[:0]
		for _, result := range results {
			if result.Document == nil {
				continue
			}
			docs = append(docs, Document{
				ID:     documentIDFromName(result.Document.Name),
				Fields: decodeRawFields(result.Document.Fields),
			})
		}
		return nil
	}

	if err := backoff.Retry(operation, c.readBackoff(ctx)); err != nil {
		c.log.Errorw("Failed to query Firestore documents", "collection", collection, "error", err)
		return nil, err
	}

	return docs, nil
}

// do performs one authenticated round-trip and reports its duration.
func (c *RESTClient) do(ctx context.Context, method, endpoint string, payload []byte, op string) ([]byte, int, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, 0, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("firestore: failed to build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.observer != nil {
		c.observer.ObserveStoreRequest(op, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, 0, fmt.Errorf("firestore: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("firestore: failed to read %s response: %w", op, err)
	}

	return body, resp.StatusCode, nil
}

// readBackoff bounds retries for read-only calls. Updates never go through it.
func (c *RESTClient) readBackoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(bo, 2), ctx)
}

func buildWhere(conditions []Condition) map[string]interface{} {
	if len(conditions) == 1 {
		return fieldFilter(conditions[0])
	}

	filters := make([]map[string]interface{}, 0, len(conditions))
	for _, condition := range conditions {
		filters = append(filters, fieldFilter(condition))
	}
	return map[string]interface{}{
		"compositeFilter": map[string]interface{}{
			"op":      "AND",
			"filters": filters,
		},
	}
}

func fieldFilter(condition Condition) map[string]interface{} {
	return map[string]interface{}{
		"fieldFilter": map[string]interface{}{
			"field": map[string]interface{}{"fieldPath": condition.Field},
			"op":    mapOperator(condition.Op),
			"value": encodeValue(condition.Value),
		},
	}
}

func mapOperator(op string) string {
	switch op {
	case "=":
		return "EQUAL"
	case "!=":
		return "NOT_EQUAL"
	case "<":
		return "LESS_THAN"
	case "<=":
		return "LESS_THAN_OR_EQUAL"
	case ">":
		return "GREATER_THAN"
	case ">=":
		return "GREATER_THAN_OR_EQUAL"
	default:
		return "EQUAL"
	}
}

func mapDirection(direction string) string {
	if strings.EqualFold(direction, "asc") {
		return "ASCENDING"
	}
	return "DESCENDING"
}

// documentIDFromName extracts the document ID from a full resource name like
// projects/p/databases/(default)/documents/subscriptionPlans/abc123.
func documentIDFromName(name string) string {
	parts := strings.Split(name, "/")
	return parts[len(parts)-1]
}
