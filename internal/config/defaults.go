package config

const (
	defaultDataDir               = "~/.local/share/loomvale"
	defaultLogDir                = "~/.local/share/loomvale/logs"
	defaultSearchBaseURL         = "https://www.googleapis.com/customsearch/v1"
	defaultSearchRequestTimeout  = 25
	defaultSearchResultLimit     = 10
	defaultTargetLinks           = 3
	defaultMinHeight             = 700
	defaultMinBytes              = 1400
	defaultFetchTimeout          = 25
	defaultQueryPacingMS         = 1000
	defaultRetryMaxAttempts      = 3
	defaultRetryBaseDelayMS      = 500
	defaultRetryIncrementMS      = 1000
	defaultMaxRowsPerRun         = 25
	defaultRowPacingMS           = 400
	defaultSeederLimit           = 6
	defaultSeederTitlesPerQuery  = 6
	defaultSeederQueryPacingMS   = 800
	defaultImageGenModel         = "gpt-image-1"
	defaultImageGenSize          = "1024x1536"
	defaultImageGenImagesPerRow  = 5
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "auto"
	defaultLogLevel              = "info"
)

// Raster extensions a direct image URL may carry.
var defaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".jfif", ".pjpeg", ".pjp"}

// Hosts presumed to serve legitimate, correctly-oriented key art. Suffix
// matching applies, so "imdb.com" also covers "m.media-amazon.com"-style
// CDN hosts listed separately below.
var defaultTrustedHosts = []string{
	"imdb.com",
	"media-amazon.com",
	"themoviedb.org",
	"crunchyroll.com",
	"aniplexusa.com",
	"ghibli.jp",
	"kimetsu.com",
	"upload.wikimedia.org",
	"pinimg.com",
	"staticflickr.com",
}

// Seed queries tuned to the Loomvale content flavor.
var defaultSeederQueries = []string{
	"site:imdb.com anime film poster 2026",
	"site:crunchyroll.com news key visual",
	"site:aniplexusa.com key visual",
	"site:ghibli.jp works poster",
	"site:kimetsu.com visual",
	"anime season 2 teaser poster key visual",
	"k-culture design exhibition poster 2026",
	"studio trigger mecha key visual",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Search: Search{
			BaseURL:        defaultSearchBaseURL,
			RequestTimeout: defaultSearchRequestTimeout,
			ResultLimit:    defaultSearchResultLimit,
		},
		Discovery: Discovery{
			TargetLinks:             defaultTargetLinks,
			MinHeight:               defaultMinHeight,
			MinBytes:                defaultMinBytes,
			FetchTimeout:            defaultFetchTimeout,
			QueryPacingMS:           defaultQueryPacingMS,
			AcceptUnverifiedTrusted: true,
			Extensions:              append([]string(nil), defaultExtensions...),
			TrustedHosts:            append([]string(nil), defaultTrustedHosts...),
		},
		Retry: Retry{
			MaxAttempts: defaultRetryMaxAttempts,
			BaseDelayMS: defaultRetryBaseDelayMS,
			IncrementMS: defaultRetryIncrementMS,
		},
		Workflow: Workflow{
			MaxRowsPerRun: defaultMaxRowsPerRun,
			RowPacingMS:   defaultRowPacingMS,
		},
		Seeder: Seeder{
			Enabled:        true,
			Limit:          defaultSeederLimit,
			TitlesPerQuery: defaultSeederTitlesPerQuery,
			QueryPacingMS:  defaultSeederQueryPacingMS,
			Queries:        append([]string(nil), defaultSeederQueries...),
		},
		ImageGen: ImageGen{
			Model:        defaultImageGenModel,
			Size:         defaultImageGenSize,
			ImagesPerRow: defaultImageGenImagesPerRow,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunSummary:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
