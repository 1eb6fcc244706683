package discovery

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loomvale/internal/logging"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestValidator(t *testing.T, cfg ValidatorConfig, handler http.Handler) (*Validator, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if cfg.Extensions == nil {
		cfg.Extensions = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
	if cfg.MinHeight == 0 {
		cfg.MinHeight = 30
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 10
	}
	cfg.FetchTimeout = 5 * time.Second

	validator := NewValidator(cfg, logging.NewNop())
	validator.SetHTTPClient(server.Client())
	return validator, server
}

func TestValidateRejectsDisallowedExtension(t *testing.T) {
	validator, server := newTestValidator(t, ValidatorConfig{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request may be issued for a rejected extension")
	}))

	outcome := validator.Validate(context.Background(), Candidate{
		URL:  server.URL + "/page.html",
		Host: "example.com",
	})
	if outcome.Accepted {
		t.Fatal("expected rejection")
	}
}

func TestValidateAcceptsPortraitMetadataWithoutFetch(t *testing.T) {
	validator, server := newTestValidator(t, ValidatorConfig{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("metadata-accepted candidate must not be fetched")
	}))

	outcome := validator.Validate(context.Background(), Candidate{
		URL:    server.URL + "/poster.jpg",
		Host:   "example.com",
		Width:  800,
		Height: 1200,
	})
	if !outcome.Accepted {
		t.Fatalf("expected acceptance, got %q", outcome.Reason)
	}
}

func TestValidateMetadataBelowMinHeightFallsThroughToDecode(t *testing.T) {
	body := pngBytes(t, 20, 40)
	validator, server := newTestValidator(t, ValidatorConfig{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))

	// Metadata says portrait but too small; the decoded bytes decide.
	outcome := validator.Validate(context.Background(), Candidate{
		URL:    server.URL + "/poster.png",
		Host:   "example.com",
		Width:  10,
		Height: 20,
	})
	if !outcome.Accepted {
		t.Fatalf("expected acceptance via decode, got %q", outcome.Reason)
	}
}

func TestValidateDecodedOrientation(t *testing.T) {
	cases := []struct {
		name   string
		width  int
		height int
		accept bool
	}{
		{"portrait", 20, 40, true},
		{"landscape", 40, 20, false},
		{"square", 30, 30, false},
		{"portrait below min height", 10, 20, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := pngBytes(t, tc.width, tc.height)
			validator, server := newTestValidator(t, ValidatorConfig{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(body)
			}))

			outcome := validator.Validate(context.Background(), Candidate{
				URL:  server.URL + "/art.png",
				Host: "example.com",
			})
			if outcome.Accepted != tc.accept {
				t.Errorf("accepted = %t (%q), want %t", outcome.Accepted, outcome.Reason, tc.accept)
			}
		})
	}
}

func TestValidateRejectsTinyPayload(t *testing.T) {
	validator, server := newTestValidator(t, ValidatorConfig{MinBytes: 1 << 20}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngBytes(t, 20, 40))
	}))

	outcome := validator.Validate(context.Background(), Candidate{
		URL:  server.URL + "/tiny.png",
		Host: "example.com",
	})
	if outcome.Accepted {
		t.Fatal("expected rejection for implausibly small payload")
	}
}

func TestValidateTrustedFallback(t *testing.T) {
	t.Run("untrusted host rejects on fetch failure", func(t *testing.T) {
		validator, server := newTestValidator(t, ValidatorConfig{AcceptUnverifiedTrusted: true}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		outcome := validator.Validate(context.Background(), Candidate{
			URL:  server.URL + "/gone.jpg",
			Host: "random-blog.example",
		})
		if outcome.Accepted {
			t.Fatal("untrusted candidate must not pass the fallback tier")
		}
	})

	t.Run("trusted host accepts via head probe", func(t *testing.T) {
		validator, server := newTestValidator(t, ValidatorConfig{
			TrustedHosts:            []string{"imdb.com"},
			AcceptUnverifiedTrusted: false,
		}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.Header().Set("Content-Length", "50000")
				return
			}
			http.Error(w, "blocked", http.StatusForbidden)
		}))
		outcome := validator.Validate(context.Background(), Candidate{
			URL:  server.URL + "/poster.jpg",
			Host: "m.media.imdb.com",
		})
		if !outcome.Accepted {
			t.Fatalf("expected probe-confirmed acceptance, got %q", outcome.Reason)
		}
	})

	t.Run("trusted host with failed probe honors the unverified policy", func(t *testing.T) {
		blockAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "blocked", http.StatusForbidden)
		})

		permissive, server := newTestValidator(t, ValidatorConfig{
			TrustedHosts:            []string{"imdb.com"},
			AcceptUnverifiedTrusted: true,
		}, blockAll)
		outcome := permissive.Validate(context.Background(), Candidate{URL: server.URL + "/poster.jpg", Host: "imdb.com"})
		if !outcome.Accepted {
			t.Fatalf("expected unverified-trusted acceptance, got %q", outcome.Reason)
		}

		strict, server2 := newTestValidator(t, ValidatorConfig{
			TrustedHosts:            []string{"imdb.com"},
			AcceptUnverifiedTrusted: false,
		}, blockAll)
		outcome = strict.Validate(context.Background(), Candidate{URL: server2.URL + "/poster.jpg", Host: "imdb.com"})
		if outcome.Accepted {
			t.Fatal("unverified acceptance must be off when the policy is disabled")
		}
	})

	t.Run("undecodable bytes from a trusted host fall back", func(t *testing.T) {
		garbage := bytes.Repeat([]byte("not an image "), 200)
		validator, server := newTestValidator(t, ValidatorConfig{
			TrustedHosts:            []string{"ghibli.jp"},
			AcceptUnverifiedTrusted: true,
		}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(garbage)
		}))
		outcome := validator.Validate(context.Background(), Candidate{URL: server.URL + "/visual.jpg", Host: "ghibli.jp"})
		if !outcome.Accepted {
			t.Fatalf("expected trusted fallback, got %q", outcome.Reason)
		}
	})
}

func TestTrustForSuffixMatch(t *testing.T) {
	validator := NewValidator(ValidatorConfig{
		Extensions:   []string{".jpg"},
		TrustedHosts: []string{"imdb.com", "media-amazon.com"},
		MinHeight:    600,
		MinBytes:     1400,
	}, logging.NewNop())

	cases := []struct {
		host string
		want Trust
	}{
		{"imdb.com", TrustTrusted},
		{"www.imdb.com", TrustTrusted},
		{"m.media-amazon.com", TrustTrusted},
		{"notimdb.com", TrustUntrusted},
		{"imdb.com.evil.example", TrustUntrusted},
	}
	for _, tc := range cases {
		if got := validator.TrustFor(tc.host); got != tc.want {
			t.Errorf("TrustFor(%q) = %q, want %q", tc.host, got, tc.want)
		}
	}
}

func TestCandidateExtension(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://example.com/a/poster.JPG", ".jpg"},
		{"https://example.com/a/poster.png?width=200", ".png"},
		{"https://example.com/a/poster", ""},
	}
	for _, tc := range cases {
		if got := (Candidate{URL: tc.url}).Extension(); got != tc.want {
			t.Errorf("Extension(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
