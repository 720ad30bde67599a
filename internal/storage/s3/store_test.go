package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory transport that answers path-style GET and PUT
// object requests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(req.URL.Path, "/")
	switch req.Method {
	case http.MethodPut:
		if f.failPut {
			return xmlError(http.StatusInternalServerError, "InternalError", "backend unavailable"), nil
		}
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		f.objects[key] = body
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return xmlError(http.StatusNotFound, "NoSuchKey", "The specified key does not exist."), nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body)), Header: http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Content-Type":   {"application/json"},
		}}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func xmlError(status int, code, message string) *http.Response {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, message)
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{"Content-Type": {"application/xml"}}}
}

// decodeChunked unwraps a single-chunk aws-chunked payload.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 || parts[2] != "0" {
		return nil, false
	}
	var size int
	if _, err := fmt.Sscanf(parts[0], "%x", &size); err != nil || size != len(parts[1]) {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newFakeStore(t *testing.T, key string) (*Store, *fakeS3) {
	t.Helper()
	rt := &fakeS3{objects: make(map[string][]byte)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.RetryMaxAttempts = 1
	})
	return NewWithClient(client, "catalogs", key), rt
}

func testCatalog() []domain.Region {
	return []domain.Region{{
		ID:   "asia-pacific",
		Name: "Asia-Pacific",
		Countries: []domain.Country{{
			Code: "IN",
			Name: "India",
			Services: []domain.Service{{
				ID:               "upi",
				Name:             "UPI",
				Type:             domain.ServiceTypeBankPayout,
				Currency:         "INR",
				Coverage:         "All UPI-enabled banks",
				TransactionLimit: domain.TransactionLimit{Min: 1, Max: 100000},
				TAT:              "Instant",
				FeeStructure:     domain.FeeStructure{Fixed: 0, Percentage: 0.3, Currency: "INR"},
			}},
		}},
	}}
}

func TestStore_RoundTrip(t *testing.T) {
	store, rt := newFakeStore(t, "")
	ctx := context.Background()

	_, err := store.LoadCatalog(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)

	regions := testCatalog()
	require.NoError(t, store.SaveCatalog(ctx, regions))
	assert.Contains(t, rt.objects, "catalogs/pricing_catalog.json")

	loaded, err := store.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, regions, loaded)

	// Saving again overwrites the object.
	regions[0].Countries[0].Services[0].TAT = "T+0"
	require.NoError(t, store.SaveCatalog(ctx, regions))
	loaded, err = store.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T+0", loaded[0].Countries[0].Services[0].TAT)
}

func TestStore_SaveFailure(t *testing.T) {
	store, rt := newFakeStore(t, "pricing/catalog.json")
	rt.failPut = true

	err := store.SaveCatalog(context.Background(), testCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://catalogs/pricing/catalog.json")
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
