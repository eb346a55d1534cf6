package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/railkit/trackproj/config"
	"github.com/railkit/trackproj/pkg/datastructure"
	"github.com/railkit/trackproj/pkg/engine/projection"
	"github.com/railkit/trackproj/pkg/loader"
	"github.com/railkit/trackproj/pkg/server/rest"
	"github.com/railkit/trackproj/pkg/server/rest/service"
)

var (
	configFile = flag.String("config", "trackproj.yaml", "server config file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}

	elements, networkCrs, err := loadNetwork(cfg.NetworkFile)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.NetworkCrs != "" {
		networkCrs = cfg.NetworkCrs
	}

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	engine, err := projection.NewEngine(elements, networkCrs, cfg.WorkingCrs,
		projection.WithWarnFunc(func(fixIdx int, fix datastructure.GnssFix, distanceMeters float64) {
			m.ProjectionWarnCount.Inc()
			log.Printf("fix %d (%.6f, %.6f): projection distance %.1f m exceeds threshold",
				fixIdx, fix.Latitude, fix.Longitude, distanceMeters)
		}))
	if err != nil {
		log.Fatal(err)
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	projectionSvc := service.NewProjectionService(engine, cfg.Projection)
	rest.ProjectionRouter(r, projectionSvc, m)

	fmt.Printf("indexed %d netelements (working CRS %s)\n", engine.NetworkSize(), engine.WorkingCrs())
	fmt.Printf("server started at %s\n", cfg.ListenAddr)

	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}

func loadNetwork(path string) ([]datastructure.NetworkElement, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pbf":
		return loader.ParseOSMRailNetwork(path)
	case ".geojson", ".json":
		return loader.ParseNetworkGeoJSON(path)
	default:
		return nil, "", fmt.Errorf("unsupported network file %s: want .geojson, .json or .pbf", path)
	}
}
