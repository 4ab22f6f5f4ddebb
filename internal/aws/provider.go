package aws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
)

const credentialCheckTimeout = 3 * time.Second

var (
	ErrAWSCredentials  = errors.New("AWS credentials not found; set AWS_PROFILE, run 'aws sso login', or configure ~/.aws/credentials")
	ErrNoInstanceTypes = errors.New("no instance types match the request")
)

// ec2API is a minimal interface for the EC2 calls we need.
type ec2API interface {
	DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
}

// pricingAPI is a minimal interface for the Pricing API calls we need.
type pricingAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Catalog turns EC2 instance types into placement servers.
type Catalog struct {
	ec2Client     ec2API
	pricingClient pricingAPI
	httpClient    *http.Client
	pricingURL    string
	region        string
	cache         *FileCache
}

// CatalogOptions configures NewCatalog.
type CatalogOptions struct {
	Region   string
	CacheDir string // empty disables the cache
	CacheTTL time.Duration
}

// NewCatalog creates a catalog using the default AWS SDK config chain.
// IMDS (EC2 metadata) is disabled to avoid long timeouts when running locally.
func NewCatalog(ctx context.Context, opts CatalogOptions) (*Catalog, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithEC2IMDSClientEnableState(imds.ClientDisabled),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAWSCredentials, err)
	}

	// Verify credentials are available before making any API calls
	credCtx, cancel := context.WithTimeout(ctx, credentialCheckTimeout)
	defer cancel()
	if _, err := cfg.Credentials.Retrieve(credCtx); err != nil {
		return nil, ErrAWSCredentials
	}

	// Pricing API is only available in us-east-1
	pricingCfg := cfg.Copy()
	pricingCfg.Region = "us-east-1"

	var cache *FileCache
	if opts.CacheDir != "" {
		cache = NewFileCache(opts.CacheDir, opts.CacheTTL)
	}

	return newCatalog(ec2.NewFromConfig(cfg), pricing.NewFromConfig(pricingCfg), opts.Region, cache), nil
}

func newCatalog(ec2Client ec2API, pricingClient pricingAPI, region string, cache *FileCache) *Catalog {
	return &Catalog{
		ec2Client:     ec2Client,
		pricingClient: pricingClient,
		httpClient:    &http.Client{Timeout: pricingHTTPTimeout},
		pricingURL:    pricingAPIBase,
		region:        region,
		cache:         cache,
	}
}

// Region returns the AWS region.
func (c *Catalog) Region() string {
	return c.region
}
