package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Map.DefaultLat != 51.138626 || cfg.Map.DefaultLng != 10.292077 {
		t.Fatalf("default center=%v,%v", cfg.Map.DefaultLat, cfg.Map.DefaultLng)
	}
	if cfg.Map.DefaultZoom != 14 || cfg.Map.FallbackZoom != 7 {
		t.Fatalf("zoom=%d fallback=%d", cfg.Map.DefaultZoom, cfg.Map.FallbackZoom)
	}
	if cfg.Shop.DefaultRangeM != 10000 || cfg.Shop.EventsTopic != "shop.events" {
		t.Fatalf("shop=%+v", cfg.Shop)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHOP_DEFAULT_RANGE_M", "2500")
	t.Setenv("REDIS_TTL", "90s")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SHOP_RESOLVE_HOSTS", "false")
	t.Setenv("SERVER_PORT", "not-a-port")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Shop.DefaultRangeM != 2500 {
		t.Fatalf("DefaultRangeM=%d", cfg.Shop.DefaultRangeM)
	}
	if cfg.Redis.TTL != 90*time.Second {
		t.Fatalf("TTL=%v", cfg.Redis.TTL)
	}
	if len(cfg.Server.CorsOrigins) != 2 {
		t.Fatalf("CorsOrigins=%v", cfg.Server.CorsOrigins)
	}
	if cfg.Shop.ResolveHosts {
		t.Fatal("ResolveHosts not overridden")
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("unparsable port should fall back, got %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "zero range", env: map[string]string{"SHOP_DEFAULT_RANGE_M": "0"}},
		{name: "max below default", env: map[string]string{"SHOP_MAX_RANGE_M": "500"}},
		{name: "center off the globe", env: map[string]string{"MAP_DEFAULT_LAT": "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
