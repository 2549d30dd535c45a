package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v2 "github.com/pb33f/libopenapi/datamodel/high/v2"
)

// HTTPClient interface for making HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrNoDocument is returned by accessors called before a document is loaded.
var ErrNoDocument = errors.New("no OpenAPI document loaded")

// Parser loads Swagger 2.0 documents and exposes their paths and definitions.
type Parser struct {
	document   libopenapi.Document
	model      *libopenapi.DocumentModel[v2.Swagger]
	buildErr   error
	httpClient HTTPClient
}

func NewParser() *Parser {
	return &Parser{
		httpClient: http.DefaultClient,
	}
}

func NewParserWithClient(client HTTPClient) *Parser {
	return &Parser{
		httpClient: client,
	}
}

// LoadFromURL loads a document from http(s)://, lambda://, file:// or a
// plain filesystem path.
func (p *Parser) LoadFromURL(ctx context.Context, urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("parsing URL: %w", err)
	}

	if parsedURL.Scheme == "" {
		filePath, err := filepath.Abs(urlStr)
		if err != nil {
			return fmt.Errorf("resolving absolute path: %w", err)
		}
		return p.loadFromFile(filePath)
	}

	// Handle file:// URIs by reading from local filesystem
	if parsedURL.Scheme == "file" {
		filePath := parsedURL.Path

		// Special case: file://host/path URLs where host is not empty
		// This means the path is actually host + path, treating it as relative
		if parsedURL.Host != "" {
			filePath = parsedURL.Host + parsedURL.Path
		}

		// Handle relative paths - if path doesn't start with /, treat as relative to current directory
		if !filepath.IsAbs(filePath) {
			var err error
			filePath, err = filepath.Abs(filePath)
			if err != nil {
				return fmt.Errorf("resolving absolute path: %w", err)
			}
		}
		return p.loadFromFile(filePath)
	}

	// Handle HTTP/HTTPS/Lambda URIs
	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching OpenAPI document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	return p.LoadFromBytes(body)
}

// loadFromFile loads an OpenAPI specification from a local file
func (p *Parser) loadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", filePath, err)
	}

	return p.LoadFromBytes(data)
}

func (p *Parser) LoadFromBytes(data []byte) error {
	document, err := libopenapi.NewDocument(data)
	if err != nil {
		return fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	if v := document.GetVersion(); v != "" && !strings.HasPrefix(v, "2.") {
		return fmt.Errorf("unsupported document version %q: expected swagger 2.0", v)
	}

	model, errs := document.BuildV2Model()
	if model == nil {
		return fmt.Errorf("building swagger model: %v", errs)
	}

	// Resolver complaints such as circular references leave a usable model.
	// They are surfaced as warnings and re-checked per definition.
	p.buildErr = nil
	if errs != nil {
		p.buildErr = fmt.Errorf("%v", errs)
	}
	p.document = document
	p.model = model

	return nil
}

type PathInfo struct {
	Path        string
	Method      string
	Summary     string
	Description string
	Operation   *v2.Operation
	Parameters  []*v2.Parameter
	Responses   *v2.Responses
}

func (p *Parser) GetPaths(pathFilter, methodFilter string) ([]PathInfo, error) {
	if p.model == nil {
		return nil, ErrNoDocument
	}

	var paths []PathInfo

	if p.model.Model.Paths == nil || p.model.Model.Paths.PathItems == nil {
		return paths, nil
	}

	for pathPattern, pathItem := range p.model.Model.Paths.PathItems.FromOldest() {
		if !matchesPathFilter(pathPattern, pathFilter) {
			continue
		}

		for method, op := range getOperations(pathItem) {
			if !matchesMethodFilter(method, methodFilter) {
				continue
			}

			paths = append(paths, PathInfo{
				Path:        pathPattern,
				Method:      strings.ToUpper(method),
				Summary:     op.Summary,
				Description: op.Description,
				Operation:   op,
				Parameters:  mergeParameters(pathItem.Parameters, op.Parameters),
				Responses:   op.Responses,
			})
		}
	}

	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Path != paths[j].Path {
			return paths[i].Path < paths[j].Path
		}
		return methodOrder(paths[i].Method) < methodOrder(paths[j].Method)
	})

	return paths, nil
}

// PathKeys returns the raw keys of the paths object in document order.
func (p *Parser) PathKeys() ([]string, error) {
	if p.model == nil {
		return nil, ErrNoDocument
	}
	var keys []string
	if p.model.Model.Paths == nil || p.model.Model.Paths.PathItems == nil {
		return keys, nil
	}
	for key := range p.model.Model.Paths.PathItems.FromOldest() {
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *Parser) GetInfo() (*base.Info, error) {
	if p.model == nil {
		return nil, ErrNoDocument
	}
	return p.model.Model.Info, nil
}

// BuildError returns the non-fatal resolver error from the last load, if any.
func (p *Parser) BuildError() error {
	return p.buildErr
}

// Model returns the built Swagger model.
func (p *Parser) Model() (*v2.Swagger, error) {
	if p.model == nil {
		return nil, ErrNoDocument
	}
	return &p.model.Model, nil
}

func matchesPathFilter(path, filter string) bool {
	if filter == "" || filter == "*" {
		return true
	}

	if strings.HasSuffix(filter, "*") {
		prefix := strings.TrimSuffix(filter, "*")
		return strings.HasPrefix(path, prefix)
	}

	// Check for exact match only
	return path == filter
}

func matchesMethodFilter(method, filter string) bool {
	if filter == "" || strings.EqualFold(filter, "ANY") || filter == "*" {
		return true
	}

	// Handle multiple methods separated by commas
	if strings.Contains(filter, ",") {
		methods := strings.Split(filter, ",")
		for _, m := range methods {
			if strings.EqualFold(method, strings.TrimSpace(m)) {
				return true
			}
		}
		return false
	}

	return strings.EqualFold(method, filter)
}

func getOperations(pathItem *v2.PathItem) map[string]*v2.Operation {
	ops := make(map[string]*v2.Operation)

	if pathItem.Get != nil {
		ops["get"] = pathItem.Get
	}
	if pathItem.Post != nil {
		ops["post"] = pathItem.Post
	}
	if pathItem.Put != nil {
		ops["put"] = pathItem.Put
	}
	if pathItem.Delete != nil {
		ops["delete"] = pathItem.Delete
	}
	if pathItem.Patch != nil {
		ops["patch"] = pathItem.Patch
	}
	if pathItem.Head != nil {
		ops["head"] = pathItem.Head
	}
	if pathItem.Options != nil {
		ops["options"] = pathItem.Options
	}

	return ops
}

func mergeParameters(pathParams, opParams []*v2.Parameter) []*v2.Parameter {
	paramMap := make(map[string]*v2.Parameter)

	for _, p := range pathParams {
		if p.Name != "" && p.In != "" {
			key := fmt.Sprintf("%s:%s", p.In, p.Name)
			paramMap[key] = p
		}
	}

	for _, p := range opParams {
		if p.Name != "" && p.In != "" {
			key := fmt.Sprintf("%s:%s", p.In, p.Name)
			paramMap[key] = p
		}
	}

	var result []*v2.Parameter
	for _, p := range paramMap {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].In != result[j].In {
			return parameterInOrder(result[i].In) < parameterInOrder(result[j].In)
		}
		return result[i].Name < result[j].Name
	})

	return result
}

func methodOrder(method string) int {
	order := map[string]int{
		"GET":     0,
		"POST":    1,
		"PUT":     2,
		"PATCH":   3,
		"DELETE":  4,
		"HEAD":    5,
		"OPTIONS": 6,
	}
	if v, ok := order[method]; ok {
		return v
	}
	return 999
}

func parameterInOrder(in string) int {
	order := map[string]int{
		"path":     0,
		"query":    1,
		"header":   2,
		"formData": 3,
		"body":     4,
	}
	if v, ok := order[in]; ok {
		return v
	}
	return 999
}
