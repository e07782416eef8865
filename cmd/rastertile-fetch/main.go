// Command rastertile-fetch downloads the raster tiles covering a geographic
// extent and writes the composite as a PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	pb "gopkg.in/cheggaaa/pb.v1"

	rastertile "github.com/twpayne/go-rastertile"
)

var log = logrus.New()

func initConfig(configPath string) error {
	viper.SetDefault("workers", 4)
	viper.SetDefault("user_agent", "rastertile-fetch/1.0")
	viper.SetDefault("resample_method", string(rastertile.ResampleCatmullRom))
	viper.SetEnvPrefix("rastertile")
	viper.AutomaticEnv()

	if configPath == "" {
		return nil
	}
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

func parseExtent(s string) (rastertile.Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return rastertile.Extent{}, fmt.Errorf("extent must be minx,maxx,miny,maxy, got %q", s)
	}
	values := make([]float64, 4)
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return rastertile.Extent{}, err
		}
		values[i] = value
	}
	return rastertile.Extent{
		MinX: values[0],
		MaxX: values[1],
		MinY: values[2],
		MaxY: values[3],
	}, nil
}

func run() error {
	configPath := flag.String("c", "", "config `file` (TOML)")
	providerName := flag.String("provider", "", "tile provider name (e.g. Esri.Terrain)")
	extentFlag := flag.String("extent", "", "extent as minx,maxx,miny,maxy in degrees")
	zoom := flag.Int("zoom", -1, "zoom level (default: suggested from extent)")
	supersample := flag.Int("supersample", 0, "supersample level (0=off, 1=fetch 2x zoom and downsample)")
	output := flag.String("o", "map.png", "output PNG `file`")
	listProviders := flag.Bool("list", false, "list available providers and exit")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if *listProviders {
		for _, name := range rastertile.Providers() {
			provider, _ := rastertile.LookupProvider(name)
			fmt.Printf("%-25s %dpx  zoom %d-%d  %s\n", name, provider.TileSize, provider.MinZoom, provider.MaxZoom, provider.Description)
		}
		return nil
	}

	if err := initConfig(*configPath); err != nil {
		return err
	}
	if *providerName == "" {
		*providerName = viper.GetString("provider")
	}
	if *providerName == "" {
		return errors.New("no provider given, use -provider or set provider in the config file")
	}
	if *extentFlag == "" {
		*extentFlag = viper.GetString("extent")
	}
	if *extentFlag == "" {
		return errors.New("no extent given, use -extent or set extent in the config file")
	}
	extent, err := parseExtent(*extentFlag)
	if err != nil {
		return err
	}

	server, err := rastertile.New(*providerName,
		rastertile.WithAPIKey(viper.GetString("api_key")),
		rastertile.WithFetchWorkers(viper.GetInt("workers")),
		rastertile.WithUserAgent(viper.GetString("user_agent")),
	)
	if err != nil {
		return err
	}
	provider := server.Provider()

	if *zoom < 0 {
		*zoom = server.SuggestZoom(extent, 1024, 768, 96, rastertile.QualityBalanced)
		log.Infof("using suggested zoom level %d", *zoom)
	}

	fetchZoom := *zoom + *supersample
	if fetchZoom > provider.MaxZoom {
		fetchZoom = provider.MaxZoom
	}
	topLeft, bottomRight, err := rastertile.TileRange(extent, fetchZoom)
	if err != nil {
		return err
	}
	total := (bottomRight.X - topLeft.X + 1) * (bottomRight.Y - topLeft.Y + 1)
	log.Infof("fetching %d tiles from %s at zoom %d", total, *providerName, fetchZoom)

	bar := pb.New(total).Prefix(fmt.Sprintf("Zoom %d: ", fetchZoom))
	bar.SetRefreshRate(time.Second)
	bar.Start()

	start := time.Now()
	img, err := server.FetchExtent(context.Background(), extent, *zoom,
		rastertile.WithSupersample(*supersample),
		rastertile.WithResampleMethod(rastertile.ResampleMethod(viper.GetString("resample_method"))),
		rastertile.WithProgress(func() {
			bar.Increment()
		}),
	)
	bar.Finish()
	if err != nil {
		return err
	}
	log.Infof("fetched %dx%d composite in %.1fs", img.Rect.Dx(), img.Rect.Dy(), time.Since(start).Seconds())

	file, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	log.Infof("wrote %s", *output)

	fmt.Println(server.LicenseInfo("", true))
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
