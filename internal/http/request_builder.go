package http

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
)

const (
	userAgent       = "apiconform"
	requestIDHeader = "X-Request-Id"
)

// RequestBuilder builds HTTP requests with authentication and headers
type RequestBuilder struct {
	logger  zerolog.Logger
	config  *config.Config
	openapi OpenAPIProvider
	tokens  TokenProvider
}

// NewRequestBuilder creates a new request builder
func NewRequestBuilder(logger zerolog.Logger, cfg *config.Config, openapi OpenAPIProvider, tokens TokenProvider) *RequestBuilder {
	return &RequestBuilder{
		logger:  logger.With().Str("component", "request_builder").Logger(),
		config:  cfg,
		openapi: openapi,
		tokens:  tokens,
	}
}

// Build creates a request with contract headers, authentication and custom
// headers applied. The generated request id is returned alongside.
func (b *RequestBuilder) Build(ctx context.Context, method, targetURL string) (*http.Request, string, error) {
	logger := b.logger.With().
		Str("method", method).
		Str("target_url", targetURL).
		Logger()

	req, err := http.NewRequestWithContext(ctx, method, targetURL, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrorTypeValidation, "failed to create HTTP request").
			WithContext("method", method).
			WithContext("url", targetURL)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, requestID)

	if b.openapi != nil {
		headerCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := b.openapi.SetHeaders(headerCtx, req); err != nil {
			logger.Warn().
				Err(err).
				Msg("could not set headers from OpenAPI document")
		} else {
			logger.Debug().Msg("OpenAPI headers applied")
		}
	}

	if err := b.applyAuthentication(ctx, req, targetURL); err != nil {
		return nil, "", err
	}

	// Custom headers override everything set above
	headerCount := 0
	for _, header := range b.config.Headers {
		name, value, _ := strings.Cut(header, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		req.Header.Set(name, strings.TrimSpace(value))
		headerCount++
	}

	if headerCount > 0 {
		logger.Debug().
			Int("custom_headers", headerCount).
			Msg("custom headers applied")
	}

	return req, req.Header.Get(requestIDHeader), nil
}

// applyAuthentication attaches the bearer token and SigV4 signature when configured
func (b *RequestBuilder) applyAuthentication(ctx context.Context, req *http.Request, targetURL string) error {
	logger := b.logger.With().Str("component", "auth").Logger()

	if b.tokens != nil {
		if err := applyBearer(req, b.tokens); err != nil {
			return err
		}
		logger.Debug().Msg("bearer token applied")
	}

	// lambda:// targets are invoked directly and never signed
	if strings.HasPrefix(targetURL, "lambda://") {
		logger.Debug().Msg("lambda URL detected, skipping SigV4")
		return nil
	}

	if b.config.Auth.SigV4 {
		logger.Debug().
			Str("service", b.config.Auth.SigV4Service).
			Msg("applying AWS SigV4 signature")

		if err := b.applySigV4(ctx, req); err != nil {
			return errors.Wrap(err, errors.ErrorTypeAuth, "SigV4 signing failed")
		}
	}

	return nil
}

// applySigV4 applies AWS SigV4 signing to the request
func (b *RequestBuilder) applySigV4(ctx context.Context, req *http.Request) error {
	service := b.config.Auth.SigV4Service
	if service == "" {
		service = "execute-api"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAuth, "failed to load AWS configuration").
			WithContext("suggestion", "ensure AWS credentials are configured")
	}

	region := cfg.Region
	if region == "" {
		return errors.New(errors.ErrorTypeAuth, "AWS region not configured").
			WithContext("suggestion", "set AWS_REGION or AWS_DEFAULT_REGION environment variable")
	}

	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAuth, "failed to retrieve AWS credentials").
			WithContext("suggestion", "check AWS credential configuration")
	}

	var body []byte
	if req.Body != nil {
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to read request body for signing")
		}
		req.Body = io.NopCloser(strings.NewReader(string(body)))
	}
	payloadHash := fmt.Sprintf("%x", sha256.Sum256(body))

	err = v4.NewSigner().SignHTTP(ctx, creds, req, payloadHash, service, region, time.Now())
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAuth, "failed to sign request with SigV4").
			WithContext("service", service).
			WithContext("region", region)
	}

	b.logger.Debug().
		Str("service", service).
		Str("region", region).
		Msg("SigV4 signature applied")

	return nil
}
