package discovery

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"loomvale/internal/logging"
)

const userAgent = "Mozilla/5.0 (Loomvale Pipeline)"

// maxFetchBytes bounds how much of a candidate image is read for decoding.
const maxFetchBytes = 24 << 20

// Trust classifies a candidate's host against the curated allowlist.
type Trust string

const (
	TrustTrusted   Trust = "trusted"
	TrustUntrusted Trust = "untrusted"
)

// Candidate is a URL surfaced by one image query, pending validation.
// Width and Height are zero when the provider omitted them.
type Candidate struct {
	URL    string
	Host   string
	Width  int
	Height int
}

// Extension returns the lowercase path extension of the candidate URL.
func (c Candidate) Extension() string {
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(parsed.Path))
}

// Outcome is the validator's verdict for one candidate. Reason is a
// short tag for logs; it carries no further state.
type Outcome struct {
	Accepted bool
	Reason   string
}

func accept(reason string) Outcome { return Outcome{Accepted: true, Reason: reason} }

func reject(reason string) Outcome { return Outcome{Reason: reason} }

// ValidatorConfig carries the canonical validation policy. Thresholds
// are configuration, never literals baked into the check logic.
type ValidatorConfig struct {
	Extensions   []string
	TrustedHosts []string
	MinHeight    int
	MinBytes     int
	FetchTimeout time.Duration
	// AcceptUnverifiedTrusted keeps a trusted-host candidate whose bytes
	// could not be fetched or decoded, trading a dimension proof for
	// host reputation.
	AcceptUnverifiedTrusted bool
}

// Validator classifies one candidate as accept or reject using a tiered
// check sequence ordered by cost. Network tiers only run when the cheap
// tiers cannot decide.
type Validator struct {
	extensions   map[string]struct{}
	trustedHosts []string
	minHeight    int
	minBytes     int
	fallback     bool
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewValidator builds a Validator from the given policy.
func NewValidator(cfg ValidatorConfig, logger *slog.Logger) *Validator {
	extensions := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		extensions[strings.ToLower(strings.TrimSpace(ext))] = struct{}{}
	}
	trusted := make([]string, 0, len(cfg.TrustedHosts))
	for _, host := range cfg.TrustedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			trusted = append(trusted, host)
		}
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Validator{
		extensions:   extensions,
		trustedHosts: trusted,
		minHeight:    cfg.MinHeight,
		minBytes:     cfg.MinBytes,
		fallback:     cfg.AcceptUnverifiedTrusted,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logging.WithComponent(logger, "validator"),
	}
}

// SetHTTPClient overrides the fetch client. Tests use this to point at
// local servers.
func (v *Validator) SetHTTPClient(client *http.Client) {
	if client != nil {
		v.httpClient = client
	}
}

// TrustFor computes the candidate host's trust tier by exact-or-suffix
// match against the allowlist.
func (v *Validator) TrustFor(host string) Trust {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, "www.")
	for _, trusted := range v.trustedHosts {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return TrustTrusted
		}
	}
	return TrustUntrusted
}

func (v *Validator) portraitTall(width, height int) bool {
	return height > width && height >= v.minHeight
}

// Validate runs the tiered checks against one candidate. At most two
// outbound requests are made (GET, then HEAD when the GET fails on a
// trusted host).
func (v *Validator) Validate(ctx context.Context, candidate Candidate) Outcome {
	if _, ok := v.extensions[candidate.Extension()]; !ok {
		return reject("extension not allowed")
	}

	trust := v.TrustFor(candidate.Host)

	// Provider metadata settles portrait orientation without a fetch.
	if candidate.Width > 0 && candidate.Height > 0 && v.portraitTall(candidate.Width, candidate.Height) {
		return accept("metadata portrait")
	}

	body, fetchErr := v.fetch(ctx, candidate.URL)
	if fetchErr == nil {
		if len(body) < v.minBytes {
			return reject("payload below minimum size")
		}
		bounds, _, decodeErr := image.DecodeConfig(bytes.NewReader(body))
		if decodeErr == nil {
			if v.portraitTall(bounds.Width, bounds.Height) {
				return accept("decoded portrait")
			}
			return reject("not a tall portrait")
		}
		v.logger.Debug("candidate decode failed",
			logging.String("url", candidate.URL),
			logging.Error(decodeErr),
		)
		return v.trustedFallback(ctx, candidate, trust)
	}

	v.logger.Debug("candidate fetch failed",
		logging.String("url", candidate.URL),
		logging.Error(fetchErr),
	)
	return v.trustedFallback(ctx, candidate, trust)
}

// trustedFallback decides candidates whose bytes could not be verified.
// A HEAD probe for a plausible Content-Length upgrades the acceptance to
// probe-confirmed; without it the explicit unverified-trusted policy
// applies. Untrusted hosts never pass this tier.
func (v *Validator) trustedFallback(ctx context.Context, candidate Candidate, trust Trust) Outcome {
	if trust != TrustTrusted {
		return reject("unverifiable on untrusted host")
	}
	if length, err := v.probe(ctx, candidate.URL); err == nil && length >= int64(v.minBytes) {
		return accept("trusted host, probe confirmed")
	}
	if v.fallback {
		return accept("trusted host, unverified")
	}
	return reject("trusted fallback disabled")
}

func (v *Validator) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch candidate: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read candidate body: %w", err)
	}
	return body, nil
}

func (v *Validator) probe(ctx context.Context, rawURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe candidate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("probe candidate: status %d", resp.StatusCode)
	}
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("probe candidate: no content length")
	}
	return resp.ContentLength, nil
}
