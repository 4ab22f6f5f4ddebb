package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

const (
	// pricingAPIBase is the public EC2 pricing API (no auth required).
	pricingAPIBase = "https://go.runs-on.com/api/instances"

	// pricingHTTPTimeout is the timeout for each pricing HTTP request.
	pricingHTTPTimeout = 10 * time.Second
)

// pricingAPIResult maps the runs-on API response fields we need.
type pricingAPIResult struct {
	InstanceType  string  `json:"instanceType"`
	OnDemandPrice float64 `json:"onDemandPrice"`
}

type pricingAPIResponse struct {
	Results []pricingAPIResult `json:"results"`
}

// EnrichWithPricing sets the on-demand hourly price of each instance type.
// The public pricing API is tried first; types it cannot price fall back to
// the AWS Price List API. Returns the number of types that got a price.
func (c *Catalog) EnrichWithPricing(ctx context.Context, types []InstanceType) int {
	priced := 0
	for i := range types {
		price, err := c.onDemandPrice(ctx, types[i].Name)
		if err != nil || price <= 0 {
			continue
		}
		types[i].HourlyPrice = price
		priced++
	}
	return priced
}

func (c *Catalog) onDemandPrice(ctx context.Context, instanceType string) (float64, error) {
	key := cacheKey("price", c.region, instanceType)
	var cached float64
	if c.cache.Get(key, &cached) {
		return cached, nil
	}

	price, err := c.fetchPublicPrice(ctx, instanceType)
	if err != nil || price <= 0 {
		price, err = c.fetchPriceList(ctx, instanceType)
		if err != nil {
			return 0, err
		}
	}

	_ = c.cache.Set(key, price)
	return price, nil
}

// fetchPublicPrice queries the public pricing API for a single instance type.
func (c *Catalog) fetchPublicPrice(ctx context.Context, instanceType string) (float64, error) {
	url := fmt.Sprintf("%s/%s?region=%s&platform=Linux/UNIX", c.pricingURL, instanceType, c.region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("pricing API returned %d for %s", resp.StatusCode, instanceType)
	}

	var pr pricingAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, err
	}

	// On-demand is the same across AZs
	for _, r := range pr.Results {
		if r.OnDemandPrice > 0 {
			return r.OnDemandPrice, nil
		}
	}
	return 0, fmt.Errorf("no pricing data for %s in %s", instanceType, c.region)
}

// priceListProduct maps the parts of a Price List API product document we need.
type priceListProduct struct {
	Terms struct {
		OnDemand map[string]struct {
			PriceDimensions map[string]struct {
				Unit         string            `json:"unit"`
				PricePerUnit map[string]string `json:"pricePerUnit"`
			} `json:"priceDimensions"`
		} `json:"OnDemand"`
	} `json:"terms"`
}

// fetchPriceList looks up the Linux shared-tenancy on-demand price with the
// AWS Price List API.
func (c *Catalog) fetchPriceList(ctx context.Context, instanceType string) (float64, error) {
	if c.pricingClient == nil {
		return 0, fmt.Errorf("no price list client configured")
	}

	filter := func(field, value string) pricingtypes.Filter {
		return pricingtypes.Filter{
			Field: aws.String(field),
			Type:  pricingtypes.FilterTypeTermMatch,
			Value: aws.String(value),
		}
	}

	out, err := c.pricingClient.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		Filters: []pricingtypes.Filter{
			filter("instanceType", instanceType),
			filter("regionCode", c.region),
			filter("operatingSystem", "Linux"),
			filter("tenancy", "Shared"),
			filter("preInstalledSw", "NA"),
			filter("capacitystatus", "Used"),
		},
		MaxResults: aws.Int32(10),
	})
	if err != nil {
		return 0, fmt.Errorf("price list lookup for %s: %w", instanceType, err)
	}

	for _, doc := range out.PriceList {
		if price, ok := parsePriceListProduct(doc); ok {
			return price, nil
		}
	}
	return 0, fmt.Errorf("no price list entry for %s in %s", instanceType, c.region)
}

// parsePriceListProduct returns the first positive hourly USD price in a
// product document.
func parsePriceListProduct(doc string) (float64, bool) {
	var p priceListProduct
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return 0, false
	}
	for _, term := range p.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			if dim.Unit != "Hrs" {
				continue
			}
			price, err := strconv.ParseFloat(dim.PricePerUnit["USD"], 64)
			if err == nil && price > 0 {
				return price, true
			}
		}
	}
	return 0, false
}
