package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/railkit/trackproj/domain"
	"github.com/railkit/trackproj/pkg/datastructure"
	"github.com/railkit/trackproj/pkg/engine/projection"
	"github.com/railkit/trackproj/pkg/loader"
)

var (
	gnssFile   = flag.String("gnss", "", "GNSS track file (.csv, .geojson or .json)")
	latCol     = flag.String("latcol", "latitude", "latitude column name in the GNSS CSV")
	lonCol     = flag.String("loncol", "longitude", "longitude column name in the GNSS CSV")
	timeCol    = flag.String("timecol", "timestamp", "timestamp column name in the GNSS CSV")
	gnssCrs    = flag.String("gnsscrs", "", "CRS of the GNSS fixes (empty: declared by the file, or EPSG:4326)")
	netFile    = flag.String("network", "", "railway network file (.geojson/.json or .pbf)")
	netCrs     = flag.String("networkcrs", "", "override the CRS declared by the network file")
	targetCrs  = flag.String("targetcrs", "EPSG:4326", "CRS of the projected output")
	workingCrs = flag.String("workingcrs", "EPSG:31370", "metric CRS used for indexing and projection")
	radius     = flag.Float64("radius", 0, "max candidate search radius in meters (0 uses the default)")
	threshold  = flag.Float64("threshold", -1, "projection distance warning threshold in meters (negative uses the default)")
	quiet      = flag.Bool("quiet", false, "suppress projection distance warnings")
	outFile    = flag.String("o", "projected.csv", "output file (.csv or .geojson)")
)

func main() {
	flag.Parse()
	if *gnssFile == "" || *netFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	fixes, fixesCrs, err := loadFixes(*gnssFile)
	if err != nil {
		fatal(err)
	}
	if *gnssCrs != "" {
		fixesCrs = *gnssCrs
	}

	elements, networkCrs, err := loadNetwork(*netFile)
	if err != nil {
		fatal(err)
	}
	if *netCrs != "" {
		networkCrs = *netCrs
	}
	fmt.Printf("loaded %d fixes, %d netelements (network CRS %s)\n", len(fixes), len(elements), networkCrs)

	cfg := projection.DefaultConfig()
	if *radius > 0 {
		cfg.MaxSearchRadiusMeters = *radius
	}
	if *threshold >= 0 {
		cfg.ProjectionDistanceWarningThresholdMeters = *threshold
	}
	cfg.SuppressWarnings = *quiet

	bar := progressbar.NewOptions(len(fixes),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()), //you should install "github.com/k0kubun/go-ansi"
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan]projecting GNSS fixes onto the railway network ..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	engine, err := projection.NewEngine(elements, networkCrs, *workingCrs,
		projection.WithProgressFunc(func(done, total int) {
			bar.Set(done)
		}))
	if err != nil {
		fatal(err)
	}

	positions, err := engine.Project(fixes, fixesCrs, *targetCrs, cfg)
	if err != nil {
		fatal(err)
	}
	fmt.Println()

	switch strings.ToLower(filepath.Ext(*outFile)) {
	case ".geojson", ".json":
		err = loader.WriteProjectedGeoJSON(*outFile, positions)
	default:
		err = loader.WriteProjectedCSV(*outFile, positions)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %d projected positions to %s\n", len(positions), *outFile)
}

func loadFixes(path string) ([]datastructure.GnssFix, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return loader.ParseGnssGeoJSON(path)
	default:
		fixes, err := loader.ParseGnssCSV(path, *latCol, *lonCol, *timeCol)
		return fixes, "EPSG:4326", err
	}
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

func fatal(err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCrs):
		log.Fatalf("invalid CRS: %v", err)
	case errors.Is(err, domain.ErrTransformFailure):
		log.Fatalf("coordinate transform failed: %v", err)
	case errors.Is(err, domain.ErrEmptyNetwork):
		log.Fatalf("empty network: %v", err)
	case errors.Is(err, domain.ErrUnprojectable):
		log.Fatalf("unprojectable fix: %v", err)
	default:
		log.Fatal(err)
	}
}
