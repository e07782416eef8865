package rastertile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrZoomOutOfRange  = errors.New("zoom level out of range")
)

var (
	tileFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastertile_tile_fetches_total",
		Help: "The total number of tile fetches from remote servers",
	})
	tileFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastertile_tile_fetch_errors_total",
		Help: "The total number of failed tile fetches",
	})
	tileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastertile_tile_cache_hits_total",
		Help: "The total number of hits on the decoded tile cache",
	})
	tileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastertile_tile_cache_misses_total",
		Help: "The total number of misses on the decoded tile cache",
	})
	tileCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastertile_tile_cache_evictions_total",
		Help: "The total number of evictions from the decoded tile cache",
	})
)

// A Server fetches raster tiles from a single provider.
type Server struct {
	provider     Provider
	apiKey       string
	httpClient   *http.Client
	userAgent    string
	cacheSize    int
	fetchWorkers int
	tileCache    *lru.Cache[Tile, image.Image]
}

// A ServerOption sets an option on a Server.
type ServerOption func(*Server)

func WithAPIKey(apiKey string) ServerOption {
	return func(s *Server) {
		s.apiKey = apiKey
	}
}

func WithCacheSize(cacheSize int) ServerOption {
	return func(s *Server) {
		s.cacheSize = cacheSize
	}
}

func WithFetchWorkers(fetchWorkers int) ServerOption {
	return func(s *Server) {
		s.fetchWorkers = fetchWorkers
	}
}

func WithHTTPClient(httpClient *http.Client) ServerOption {
	return func(s *Server) {
		s.httpClient = httpClient
	}
}

func WithUserAgent(userAgent string) ServerOption {
	return func(s *Server) {
		s.userAgent = userAgent
	}
}

// New returns a new Server for the named provider. The API key, if the
// provider needs one and none is given, is read from the provider's
// environment variable.
func New(providerName string, options ...ServerOption) (*Server, error) {
	provider, err := LookupProvider(providerName)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(provider, options...)
}

// NewWithProvider returns a new Server for an arbitrary provider
// configuration, for self-hosted or otherwise unregistered tile endpoints.
func NewWithProvider(provider Provider, options ...ServerOption) (*Server, error) {
	s := &Server{
		provider:     provider,
		httpClient:   http.DefaultClient,
		cacheSize:    64,
		fetchWorkers: 1,
	}
	for _, option := range options {
		option(s)
	}
	if s.apiKey == "" && provider.APIKeyEnv != "" {
		s.apiKey = os.Getenv(provider.APIKeyEnv)
	}

	var err error
	s.tileCache, err = lru.NewWithEvict(s.cacheSize, func(Tile, image.Image) {
		tileCacheEvictions.Inc()
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Provider returns s's provider configuration.
func (s *Server) Provider() Provider {
	return s.provider
}

// TileURL returns the URL for t.
func (s *Server) TileURL(t Tile) string {
	return s.provider.URL(t, s.apiKey)
}

// LicenseInfo returns the attribution line for s's provider. An empty year
// means the current year.
func (s *Server) LicenseInfo(year string, includeURL bool) string {
	return s.provider.LicenseInfo(year, includeURL)
}

// FetchTile fetches and decodes a single tile, using the cache if possible.
func (s *Server) FetchTile(ctx context.Context, t Tile) (image.Image, error) {
	if s.provider.RequiresAPIKey && s.apiKey == "" {
		return nil, fmt.Errorf("%w: provider %s requires an API key, set it with WithAPIKey or the %s environment variable", ErrMissingAPIKey, s.provider.Name, s.provider.APIKeyEnv)
	}

	if img, ok := s.tileCache.Get(t); ok {
		tileCacheHits.Inc()
		return img, nil
	}
	tileCacheMisses.Inc()

	img, err := s.fetchTile(ctx, t)
	if err != nil {
		return nil, err
	}
	s.tileCache.Add(t, img)
	return img, nil
}

// fetchTile fetches and decodes a single tile, bypassing the cache.
func (s *Server) fetchTile(ctx context.Context, t Tile) (image.Image, error) {
	url := s.TileURL(t)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	tileFetches.Inc()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		tileFetchErrors.Inc()
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		tileFetchErrors.Inc()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tileFetchErrors.Inc()
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if len(body) == 0 {
		tileFetchErrors.Inc()
		return nil, fmt.Errorf("fetch %s: empty body", url)
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		tileFetchErrors.Inc()
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	if s.provider.PostProcess == PostProcessBlackToTransparent {
		img = blackToTransparent(img)
	}
	return img, nil
}

type extentConfig struct {
	supersample    int
	resample       bool
	resampleMethod ResampleMethod
	progress       func()
}

// An ExtentOption sets an option on a composite fetch.
type ExtentOption func(*extentConfig)

// WithSupersample fetches tiles n zoom levels above the requested one and
// downsamples the composite, trading bandwidth for quality. Each increment
// quadruples the number of tiles fetched.
func WithSupersample(n int) ExtentOption {
	return func(c *extentConfig) {
		c.supersample = n
	}
}

// WithoutResample disables the smoothing pass applied to non-supersampled
// composites.
func WithoutResample() ExtentOption {
	return func(c *extentConfig) {
		c.resample = false
	}
}

func WithResampleMethod(method ResampleMethod) ExtentOption {
	return func(c *extentConfig) {
		c.resampleMethod = method
	}
}

// WithProgress calls fn after each tile of the composite is fetched. fn may
// be called concurrently.
func WithProgress(fn func()) ExtentOption {
	return func(c *extentConfig) {
		c.progress = fn
	}
}

// FetchExtent fetches all tiles covering extent at the given zoom level and
// assembles them into a single image. The zoom level must be within the
// provider's supported range; supersampling is reduced as needed to stay
// below the provider's maximum zoom.
func (s *Server) FetchExtent(ctx context.Context, extent Extent, zoom int, options ...ExtentOption) (*image.NRGBA, error) {
	config := extentConfig{
		resample:       true,
		resampleMethod: ResampleCatmullRom,
	}
	for _, option := range options {
		option(&config)
	}

	if zoom < s.provider.MinZoom || zoom > s.provider.MaxZoom {
		return nil, fmt.Errorf("%w: provider %s supports zoom levels %d to %d, got %d", ErrZoomOutOfRange, s.provider.Name, s.provider.MinZoom, s.provider.MaxZoom, zoom)
	}
	supersample := config.supersample
	if zoom+supersample > s.provider.MaxZoom {
		supersample = s.provider.MaxZoom - zoom
	}
	fetchZoom := zoom + supersample

	tiles, tileSize, err := s.fetchGrid(ctx, extent, fetchZoom, config.progress)
	if err != nil {
		return nil, err
	}
	combined := CombineTiles(tiles, tileSize)

	if supersample > 0 {
		// Downsample to the size the mosaic would have had at the
		// requested zoom.
		topLeft, bottomRight, err := TileRange(extent, zoom)
		if err != nil {
			return nil, err
		}
		targetWidth := (bottomRight.X - topLeft.X + 1) * s.provider.TileSize
		targetHeight := (bottomRight.Y - topLeft.Y + 1) * s.provider.TileSize
		return resize(combined, targetWidth, targetHeight, ResampleCatmullRom.scaler()), nil
	}

	if config.resample {
		// A slight upscale and downscale smooths tile boundary artifacts.
		width := combined.Rect.Dx()
		height := combined.Rect.Dy()
		upscaled := resize(combined, width*102/100, height*102/100, ResampleCatmullRom.scaler())
		return resize(upscaled, width, height, config.resampleMethod.scaler()), nil
	}

	return combined, nil
}

// fetchGrid fetches the grid of tiles covering extent at the given zoom.
// It returns the row-major grid and the pixel size of the fetched tiles,
// which may differ from the provider's nominal tile size for @2x endpoints.
func (s *Server) fetchGrid(ctx context.Context, extent Extent, zoom int, progress func()) ([][]image.Image, int, error) {
	topLeft, bottomRight, err := TileRange(extent, zoom)
	if err != nil {
		return nil, 0, err
	}
	rows := bottomRight.Y - topLeft.Y + 1
	cols := bottomRight.X - topLeft.X + 1

	tiles := make([][]image.Image, rows)
	for row := range tiles {
		tiles[row] = make([]image.Image, cols)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.fetchWorkers))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			g.Go(func() error {
				img, err := s.FetchTile(ctx, Tile{
					Z: zoom,
					X: topLeft.X + col,
					Y: topLeft.Y + row,
				})
				if err != nil {
					return err
				}
				tiles[row][col] = img
				if progress != nil {
					progress()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	tileSize := s.provider.TileSize
	if len(tiles) > 0 && len(tiles[0]) > 0 && tiles[0][0] != nil {
		tileSize = tiles[0][0].Bounds().Dx()
	}
	return tiles, tileSize, nil
}

// A Quality expresses a speed/quality preference for SuggestZoom.
type Quality string

const (
	QualityFast     Quality = "fast"
	QualityBalanced Quality = "balanced"
	QualityBest     Quality = "best"
)

// SuggestZoom returns a zoom level suited to rendering extent into an image
// of the given pixel size at the given DPI, clamped to the provider's
// supported range.
func (s *Server) SuggestZoom(extent Extent, imageWidth, imageHeight int, dpi float64, quality Quality) int {
	scaleDenominator := ScaleDenominator(extent, imageWidth, imageHeight, dpi)
	zoom := ZoomForScale(scaleDenominator, 1, dpi, s.provider.TileSize, s.provider.TileSize)

	switch quality {
	case QualityFast:
		zoom--
	case QualityBest:
		zoom += 2
	}
	// @2x tiles cover four times the area per tile, so look one level deeper.
	if s.provider.TileSize >= 512 {
		zoom++
	}

	return clampInt(zoom, s.provider.MinZoom, s.provider.MaxZoom)
}
