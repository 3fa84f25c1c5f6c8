// Package dart is a typed, rate-limited client for the DART corporate
// disclosure open API.
package dart

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/resilience"
)

const (
	defaultBaseURL     = "https://opendart.fss.or.kr"
	defaultTimeout     = 30 * time.Second
	defaultRateLimit   = 10 // requests per second, shared across all calls
	disclosurePageSize = 100

	// SentinelCorpCode returns a full mock profile when the client runs
	// without a real API key.
	SentinelCorpCode = "00126380"
)

// placeholderKeys are config template values treated the same as an
// absent key.
var placeholderKeys = map[string]bool{
	"your-dart-api-key":             true,
	"your-actual-dart-api-key-here": true,
}

// Client calls the four DART endpoints the ingestion pipeline consumes.
type Client interface {
	// FetchCorpCodeArchive streams the corp-code ZIP dump. The caller
	// owns the returned body.
	FetchCorpCodeArchive(ctx context.Context) (io.ReadCloser, error)

	// GetCompanyProfile returns the company profile for an 8-digit corp
	// code, or nil when DART has no data. Transport and parse failures
	// also yield nil; they are logged, never returned.
	GetCompanyProfile(ctx context.Context, corpCode string) (*model.CompanyProfile, error)

	// SearchDisclosures lists filings submitted between begin and end
	// (inclusive, YYYYMMDD bounds derived from the given times).
	SearchDisclosures(ctx context.Context, corpCode string, begin, end time.Time) ([]model.Disclosure, error)

	// GetFinancialStatement returns all statement rows for one
	// (corp, year, report, division) tuple; empty when DART reports no
	// data for the period.
	GetFinancialStatement(ctx context.Context, corpCode, businessYear, reportCode, division string) ([]model.StatementRow, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the shared requests-per-second budget.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRetry overrides the transient-failure retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
	log     *zap.Logger
}

// NewClient creates a DART API client. An empty or placeholder apiKey
// switches GetCompanyProfile into deterministic mock mode for offline
// development.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			ShouldTrip: resilience.IsTransient,
		}),
		log: zap.L().With(zap.String("component", "dart.client")),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// MaskKey hides the middle of an API key for logging: first four and
// last four characters survive.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	masked := key[:min(4, len(key))] + "****"
	if len(key) > 8 {
		masked += key[len(key)-4:]
	}
	return masked
}

func (c *httpClient) mockMode() bool {
	return c.apiKey == "" || placeholderKeys[c.apiKey]
}

// get performs one rate-limited GET against the API, appending the
// credential parameter. The caller never sees the unmasked key.
// Transient failures (timeouts, 429, 5xx) are retried with backoff; the
// shared circuit breaker rejects calls outright once the API is clearly
// down.
func (c *httpClient) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	params.Set("crtfc_key", c.apiKey)
	u := c.baseURL + path + "?" + params.Encode()

	c.log.Debug("dart request",
		zap.String("path", path),
		zap.String("api_key", MaskKey(c.apiKey)))

	retryCfg := c.retry
	retryCfg.OnRetry = resilience.RetryLogger("dart", path)

	return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*http.Response, error) {
		return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (*http.Response, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "dart: rate limiter wait")
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return nil, eris.Wrapf(err, "dart: create request %s", path)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return nil, eris.Wrapf(err, "dart: send request %s", path)
			}
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				resp.Body.Close()
				return nil, resilience.NewTransientError(
					eris.Errorf("dart: %s status %d", path, resp.StatusCode), resp.StatusCode)
			}
			return resp, nil
		})
	})
}

func (c *httpClient) FetchCorpCodeArchive(ctx context.Context) (io.ReadCloser, error) {
	resp, err := c.get(ctx, "/api/corpCode.xml", url.Values{})
	if err != nil {
		return nil, eris.Wrap(model.ErrExternalSource, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, eris.Wrapf(model.ErrExternalSource, "dart: corp code archive status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (c *httpClient) GetCompanyProfile(ctx context.Context, corpCode string) (*model.CompanyProfile, error) {
	if corpCode == "" {
		return nil, eris.Wrap(model.ErrInvalidArgument, "dart: blank corp code")
	}

	if c.mockMode() {
		c.log.Warn("no DART API key configured, returning mock profile",
			zap.String("corp_code", corpCode))
		return mockProfile(corpCode), nil
	}

	params := url.Values{}
	params.Set("corp_code", corpCode)

	resp, err := c.get(ctx, "/api/company.json", params)
	if err != nil {
		c.log.Warn("company profile request failed", zap.String("corp_code", corpCode), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("company profile non-2xx",
			zap.String("corp_code", corpCode),
			zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn("company profile read failed", zap.String("corp_code", corpCode), zap.Error(err))
		return nil, nil
	}

	var profile companyProfileResponse
	if err := json.Unmarshal(body, &profile); err != nil {
		c.log.Warn("company profile unparseable",
			zap.String("corp_code", corpCode), zap.Error(err))
		return nil, nil
	}
	if profile.Status != statusOK {
		c.log.Info("company profile unavailable",
			zap.String("corp_code", corpCode),
			zap.String("status", profile.Status),
			zap.String("message", profile.Message))
		return nil, nil
	}

	return profile.toModel(), nil
}

func (c *httpClient) SearchDisclosures(ctx context.Context, corpCode string, begin, end time.Time) ([]model.Disclosure, error) {
	if corpCode == "" {
		return nil, eris.Wrap(model.ErrInvalidArgument, "dart: blank corp code")
	}

	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bgn_de", begin.Format("20060102"))
	params.Set("end_de", end.Format("20060102"))
	params.Set("page_no", "1")
	params.Set("page_count", "100")

	resp, err := c.get(ctx, "/api/list.json", params)
	if err != nil {
		return nil, eris.Wrap(model.ErrExternalSource, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(model.ErrExternalSource, "dart: disclosure search status %d", resp.StatusCode)
	}

	var result disclosureSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, eris.Wrap(model.ErrExternalSource, "dart: decode disclosure search: "+err.Error())
	}

	switch result.Status {
	case statusOK:
	case statusNoData:
		return nil, nil
	default:
		return nil, eris.Wrapf(model.ErrExternalSource,
			"dart: disclosure search status=%s message=%s", result.Status, result.Message)
	}

	disclosures := make([]model.Disclosure, 0, len(result.List))
	for i := range result.List {
		disclosures = append(disclosures, result.List[i].toModel())
	}
	return disclosures, nil
}

func (c *httpClient) GetFinancialStatement(ctx context.Context, corpCode, businessYear, reportCode, division string) ([]model.StatementRow, error) {
	if corpCode == "" {
		return nil, eris.Wrap(model.ErrInvalidArgument, "dart: blank corp code")
	}
	if !model.ValidReportCode(reportCode) {
		return nil, eris.Wrapf(model.ErrInvalidArgument, "dart: unknown report code %s", reportCode)
	}

	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", businessYear)
	params.Set("reprt_code", reportCode)
	params.Set("fs_div", division)

	resp, err := c.get(ctx, "/api/fnlttSinglAcntAll.json", params)
	if err != nil {
		return nil, eris.Wrap(model.ErrExternalSource, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(model.ErrExternalSource, "dart: financial statement status %d", resp.StatusCode)
	}

	var result financialStatementResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, eris.Wrap(model.ErrExternalSource, "dart: decode financial statement: "+err.Error())
	}

	if result.Status != statusOK {
		c.log.Info("no financial statement data",
			zap.String("corp_code", corpCode),
			zap.String("bsns_year", businessYear),
			zap.String("reprt_code", reportCode),
			zap.String("status", result.Status),
			zap.String("message", result.Message))
		return nil, nil
	}

	rows := make([]model.StatementRow, 0, len(result.List))
	for i := range result.List {
		rows = append(rows, result.List[i].toModel())
	}
	return rows, nil
}

// mockProfile fabricates a deterministic profile for offline use. The
// sentinel corp code gets a fully populated record so that enrichment
// and risk flows can be exercised end to end.
func mockProfile(corpCode string) *model.CompanyProfile {
	if corpCode == SentinelCorpCode {
		return &model.CompanyProfile{
			CorpCode:                    SentinelCorpCode,
			CorpName:                    "삼성전자(주)",
			CorpNameEng:                 "SAMSUNG ELECTRONICS CO,.LTD",
			StockCode:                   "005930",
			StockName:                   "삼성전자",
			CEOName:                     "한종희",
			CorpClass:                   "Y",
			BusinessNumber:              "124-81-00998",
			CorporateRegistrationNumber: "130111-0006246",
			Address:                     "경기도 수원시 영통구 삼성로 129 (매탄동)",
			HomepageURL:                 "www.samsung.com",
			PhoneNumber:                 "031-200-1114",
			IndustryCode:                "26410",
			EstablishmentDate:           "19690113",
			AccountingMonth:             "12",
			UserType:                    model.UserTypeUnknown,
		}
	}
	return &model.CompanyProfile{
		CorpCode:     corpCode,
		CorpName:     "테스트 회사명",
		StockName:    "테스트 종목명",
		IndustryCode: "12345",
		UserType:     model.UserTypeUnknown,
	}
}
