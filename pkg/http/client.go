package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/google/uuid"
)

const defaultUserAgent = "apiconform"

// Client wraps the standard http.Client and adds Lambda invocation support.
// Requests to lambda://<function>/<path> are sent as API Gateway v2 proxy
// events, so a contract can be checked against a function before it is
// deployed behind a gateway.
type Client struct {
	*http.Client
	lambdaClient *lambda.Client
	awsConfig    aws.Config
}

// NewClient creates a new HTTP client with Lambda support
func NewClient() (*Client, error) {
	return NewClientWithHTTPClient(http.DefaultClient)
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client
func NewClientWithHTTPClient(httpClient *http.Client) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Client{
		Client:       httpClient,
		lambdaClient: lambda.NewFromConfig(cfg),
		awsConfig:    cfg,
	}, nil
}

// Do performs the request, routing to Lambda or HTTP based on the URL scheme
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "lambda" {
		resp, err := c.doLambda(req)
		if err != nil {
			return nil, err
		}
		resp.Request = req
		return resp, nil
	}
	return c.Client.Do(req)
}

// Get performs a GET request
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// doLambda handles Lambda invocations
func (c *Client) doLambda(req *http.Request) (*http.Response, error) {
	functionName := req.URL.Host
	if functionName == "" {
		return nil, fmt.Errorf("lambda URL missing function name")
	}
	if c.lambdaClient == nil {
		return nil, fmt.Errorf("lambda invocation requires AWS configuration")
	}

	event, err := httpRequestToLambdaEvent(req)
	if err != nil {
		return nil, fmt.Errorf("converting request to Lambda event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshaling Lambda event: %w", err)
	}

	output, err := c.lambdaClient.Invoke(req.Context(), &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("invoking Lambda function: %w", err)
	}

	if output.FunctionError != nil {
		return nil, fmt.Errorf("Lambda function error: %s: %s", *output.FunctionError, string(output.Payload))
	}

	return lambdaResponseToHTTP(output.Payload)
}

// httpRequestToLambdaEvent converts an http.Request to an API Gateway v2 HTTP proxy event
func httpRequestToLambdaEvent(req *http.Request) (*events.APIGatewayV2HTTPRequest, error) {
	var body string
	var isBase64Encoded bool

	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		if utf8.Valid(bodyBytes) {
			body = string(bodyBytes)
		} else {
			body = base64.StdEncoding.EncodeToString(bodyBytes)
			isBase64Encoded = true
		}
	}

	// Cookies travel in their own field in the v2 format
	headers := make(map[string]string)
	var cookies []string
	for key, values := range req.Header {
		if http.CanonicalHeaderKey(key) == "Cookie" {
			for _, v := range values {
				for _, c := range strings.Split(v, ";") {
					if c = strings.TrimSpace(c); c != "" {
						cookies = append(cookies, c)
					}
				}
			}
			continue
		}
		headers[key] = strings.Join(values, ",")
	}
	if req.Host != "" {
		headers["Host"] = req.Host
	}

	queryParams := make(map[string]string)
	for key, values := range req.URL.Query() {
		queryParams[key] = strings.Join(values, ",")
	}

	userAgent := req.Header.Get("User-Agent")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	path := req.URL.Path
	if path == "" {
		path = "/"
	}
	now := time.Now()

	event := &events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              "$default",
		RawPath:               path,
		RawQueryString:        req.URL.RawQuery,
		Cookies:               cookies,
		Headers:               headers,
		QueryStringParameters: queryParams,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			AccountID:    "anonymous",
			APIID:        "lambda-adapter",
			DomainName:   req.URL.Host,
			DomainPrefix: req.URL.Host,
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    req.Method,
				Path:      path,
				Protocol:  "HTTP/1.1",
				SourceIP:  "127.0.0.1",
				UserAgent: userAgent,
			},
			RequestID: requestID,
			RouteKey:  "$default",
			Stage:     "$default",
			Time:      now.Format("02/Jan/2006:15:04:05 -0700"),
			TimeEpoch: now.UnixMilli(),
		},
		Body:            body,
		IsBase64Encoded: isBase64Encoded,
	}

	return event, nil
}

// lambdaResponseToHTTP converts a Lambda response to an http.Response.
// A missing statusCode means 200, as API Gateway treats it.
func lambdaResponseToHTTP(payload []byte) (*http.Response, error) {
	var lambdaResp events.APIGatewayV2HTTPResponse
	if err := json.Unmarshal(payload, &lambdaResp); err != nil {
		return nil, fmt.Errorf("parsing Lambda response: %w", err)
	}

	status := lambdaResp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	resp := &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     make(http.Header),
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
	}

	for key, value := range lambdaResp.Headers {
		resp.Header.Set(key, value)
	}
	for key, values := range lambdaResp.MultiValueHeaders {
		for _, v := range values {
			resp.Header.Add(key, v)
		}
	}
	for _, cookie := range lambdaResp.Cookies {
		resp.Header.Add("Set-Cookie", cookie)
	}

	bodyBytes := []byte(lambdaResp.Body)
	if lambdaResp.IsBase64Encoded && lambdaResp.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(lambdaResp.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 Lambda body: %w", err)
		}
		bodyBytes = decoded
	}
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	resp.ContentLength = int64(len(bodyBytes))

	return resp, nil
}
