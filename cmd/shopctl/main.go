// cmd/shopctl/main.go

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shopmap/internal/adapter/shopapi"
	"shopmap/internal/config"
	"shopmap/internal/domain/geo"
	"shopmap/internal/logger"
	geoService "shopmap/internal/service/geo"
	"shopmap/internal/service/viewport"
)

const usage = `usage: shopctl [flags] nearby | search TERM | follow

Queries the shop backend the same way the map page does.
`

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	lat := flag.Float64("lat", cfg.Map.DefaultLat, "viewport center latitude")
	lng := flag.Float64("lng", cfg.Map.DefaultLng, "viewport center longitude")
	span := flag.Int("span", 2000, "viewport side length in meters")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New("shopctl", cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := shopapi.NewClient(cfg.Client.BaseURL, cfg.Client.Timeout, log)
	if err != nil {
		log.Fatal("Failed to create shop API client", zap.Error(err))
	}

	cache := viewport.NewCache(client, geoService.NewSpherical(), viewport.Config{
		DefaultRangeM: cfg.Shop.DefaultRangeM,
		MaxRangeM:     cfg.Shop.MaxRangeM,
		MinSearchLen:  cfg.Map.MinSearchLen,
	})

	center := geo.LatLng{Lat: *lat, Lng: *lng}
	view := cache.BoundingSquare(center, *span)
	cache.RecordViewport(view)

	out := json.NewEncoder(os.Stdout)

	switch cmd := flag.Arg(0); cmd {
	case "nearby":
		items, err := cache.Fetch(ctx, center, &view)
		if err != nil {
			log.Fatal("Failed to fetch shops", zap.Error(err))
		}
		region, _ := cache.Region()
		log.Info("Fetched shops",
			zap.Int("count", len(items)),
			zap.Int("radius_m", cache.SearchRadius(&view)),
			zap.Any("region", region),
		)
		for _, s := range items {
			out.Encode(s)
		}

	case "search":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		items, err := cache.Search(ctx, flag.Arg(1))
		if err != nil {
			log.Fatal("Failed to search shops", zap.Error(err))
		}
		for _, s := range items {
			out.Encode(s)
		}

	case "follow":
		events, err := client.Follow(ctx)
		if err != nil {
			log.Fatal("Failed to follow shop events", zap.Error(err))
		}
		for ev := range events {
			out.Encode(ev)
		}
		if ctx.Err() == nil {
			log.Warn("Event stream ended")
		}

	default:
		log.Error("Unknown command", zap.String("command", cmd))
		flag.Usage()
		os.Exit(2)
	}
}
