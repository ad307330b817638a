// Package catalog looks up product pricing in the commerce backend.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2024-10"

var (
	ErrNotConfigured = errors.New("missing Shopify credentials")
	ErrNotFound      = errors.New("no product found")
)

// UpstreamError is a failure reported by, or while talking to, the backend.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// LookupKind selects the field matched by a lookup.
type LookupKind string

const (
	ByBarcode LookupKind = "barcode"
	BySKU     LookupKind = "sku"
)

// Product is the price-checker view of a variant.
type Product struct {
	ProductID      string   `json:"productId"`
	VariantID      string   `json:"variantId"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ImageURL       *string  `json:"imageUrl"`
	ImageAlt       *string  `json:"imageAlt"`
	Barcode        string   `json:"barcode"`
	SKU            string   `json:"sku"`
	ProductPrice   float64  `json:"productPrice"`
	SalePrice      *float64 `json:"salePrice"`
	CompareAtPrice *float64 `json:"compareAtPrice"`
	OnlineStoreURL *string  `json:"onlineStoreUrl"`
	Currency       string   `json:"currency"`
	LastUpdatedAt  string   `json:"lastUpdatedAt"`
}

const productByCodeQuery = `query ProductByCode($search: String!) {
  productVariants(first: 1, query: $search) {
    edges {
      node {
        id
        sku
        barcode
        price
        compareAtPrice
        product {
          id
          title
          description
          onlineStoreUrl
          featuredImage { url altText }
        }
      }
    }
  }
}`

type variantNode struct {
	ID             string `json:"id"`
	SKU            string `json:"sku"`
	Barcode        string `json:"barcode"`
	Price          string `json:"price"`
	CompareAtPrice string `json:"compareAtPrice"`
	Product        *struct {
		ID             string  `json:"id"`
		Title          string  `json:"title"`
		Description    string  `json:"description"`
		OnlineStoreURL *string `json:"onlineStoreUrl"`
		FeaturedImage  *struct {
			URL     string  `json:"url"`
			AltText *string `json:"altText"`
		} `json:"featuredImage"`
	} `json:"product"`
}

type graphQLResponse struct {
	Data struct {
		ProductVariants struct {
			Edges []struct {
				Node variantNode `json:"node"`
			} `json:"edges"`
		} `json:"productVariants"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Shopify queries the Shopify Admin GraphQL API.
type Shopify struct {
	shop       string
	token      string
	version    string
	baseURL    string
	httpClient *http.Client
	nowFunc    func() time.Time
}

// NewShopify returns a client for shop. Missing shop or token leaves the
// client unconfigured; Lookup then fails with ErrNotConfigured.
func NewShopify(shop, token, version string) *Shopify {
	if version == "" {
		version = DefaultAPIVersion
	}
	return &Shopify{
		shop:       strings.TrimSpace(shop),
		token:      strings.TrimSpace(token),
		version:    version,
		baseURL:    "https://" + strings.TrimSpace(shop),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		nowFunc:    time.Now,
	}
}

// Configured reports whether credentials are present.
func (s *Shopify) Configured() bool {
	return s.shop != "" && s.token != ""
}

// Lookup finds the first variant whose kind field matches value.
func (s *Shopify) Lookup(ctx context.Context, kind LookupKind, value string) (*Product, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{
		"query":     productByCodeQuery,
		"variables": map[string]string{"search": string(kind) + ":" + strings.ReplaceAll(value, `"`, "")},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/admin/api/%s/graphql.json", s.baseURL, s.version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: "Shopify query failed"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &UpstreamError{Message: "Shopify query failed"}
	}
	var out graphQLResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("Shopify returned status %d", resp.StatusCode)}
	}
	if len(out.Errors) > 0 {
		msg := out.Errors[0].Message
		if msg == "" {
			msg = "Shopify query failed"
		}
		return nil, &UpstreamError{Message: msg}
	}
	if len(out.Data.ProductVariants.Edges) == 0 {
		return nil, ErrNotFound
	}
	return s.mapVariant(out.Data.ProductVariants.Edges[0].Node), nil
}

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

func stripHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// mapVariant reports a sale only when compare-at exceeds the current price.
func (s *Shopify) mapVariant(n variantNode) *Product {
	price := parsePrice(n.Price)
	compareAt := parsePrice(n.CompareAtPrice)

	p := &Product{
		VariantID:    n.ID,
		Title:        "Unknown Product",
		Barcode:      n.Barcode,
		SKU:          n.SKU,
		ProductPrice: price,
		Currency:     "USD",
	}
	p.LastUpdatedAt = s.nowFunc().UTC().Format(time.RFC3339)
	if compareAt > price {
		p.SalePrice = &price
		p.CompareAtPrice = &compareAt
	}
	if n.Product != nil {
		p.ProductID = n.Product.ID
		if n.Product.Title != "" {
			p.Title = n.Product.Title
		}
		p.Description = stripHTML(n.Product.Description)
		p.OnlineStoreURL = n.Product.OnlineStoreURL
		if img := n.Product.FeaturedImage; img != nil && img.URL != "" {
			p.ImageURL = &img.URL
			p.ImageAlt = img.AltText
		}
	}
	return p
}

func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
