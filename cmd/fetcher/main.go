package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"hub-search/internal/db"
	"hub-search/internal/fetch"
	"hub-search/internal/models"
)

func main() {
	// Parse command line flags
	dbPath := flag.String("db", "", "Path to SQLite database")
	communes := flag.String("communes", "", "Comma-separated INSEE codes (default: full catalogue)")
	htaDataset := flag.String("hta-dataset", fetch.DatasetHTA, "Enedis HTA dataset to query")
	rps := flag.Float64("rps", 1, "Max requests per second to upstream APIs")
	skipNetwork := flag.Bool("skip-network", false, "Skip the HTA network download")
	skipAxes := flag.Bool("skip-axes", false, "Skip the road axis download")
	flag.Parse()

	// Determine database path
	if *dbPath == "" {
		cwd, _ := os.Getwd()
		*dbPath = filepath.Join(cwd, "data", "hub-search.db")
	}

	log.Printf("Using database: %s", *dbPath)

	// Initialize database
	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Select the communes to acquire
	catalogue := fetch.Communes
	if *communes != "" {
		catalogue = catalogue[:0:0]
		for _, code := range strings.Split(*communes, ",") {
			code = strings.TrimSpace(code)
			name := fetch.CommuneName(code)
			if name == "" {
				log.Printf("Code %s is not in the catalogue, fetching without a city label", code)
			}
			catalogue = append(catalogue, fetch.Commune{Name: name, Code: code})
		}
	}

	cfg := fetch.DefaultConfig()
	cfg.RequestsPerSec = *rps
	fetcher := fetch.New(cfg)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received interrupt signal, shutting down...")
		cancel()
	}()

	log.Printf("Fetching %d communes...", len(catalogue))
	startTime := time.Now()

	for _, commune := range catalogue {
		if ctx.Err() != nil {
			break
		}
		if err := fetchCommune(ctx, database, fetcher, commune, *htaDataset, *skipNetwork, *skipAxes); err != nil {
			log.Printf("Commune %s (%s) failed: %v", commune.Code, commune.Name, err)
			continue
		}
	}

	if ctx.Err() == context.Canceled {
		log.Println("Fetch cancelled by user")
		return
	}
	log.Printf("Fetch completed in %s", time.Since(startTime))
}

// fetchCommune acquires the parcel, network and axis datasets of one
// commune. Multi-district cities get one parcel dataset per arrondissement;
// the merge tool combines them afterwards.
func fetchCommune(ctx context.Context, database *db.DB, fetcher *fetch.Fetcher, commune fetch.Commune, htaDataset string, skipNetwork, skipAxes bool) error {
	cityLabel := commune.Name
	if cityLabel == "" {
		cityLabel = commune.Code
	}

	city, err := fetcher.CityInfo(ctx, cityLabel+", France")
	if err != nil {
		return err
	}

	parcelCodes := []string{commune.Code}
	if districts, ok := fetch.Arrondissements[commune.Code]; ok {
		parcelCodes = districts
		log.Printf("%s: %d arrondissements", cityLabel, len(districts))
	}

	for _, code := range parcelCodes {
		fc, err := fetcher.FetchParcels(ctx, code)
		if err != nil {
			log.Printf("Parcels %s: %v", code, err)
			continue
		}
		meta := &models.DatasetMeta{
			CommuneCode: code,
			Kind:        models.KindParcels,
			CityName:    sql.NullString{String: commune.Name, Valid: commune.Name != ""},
			CenterLat:   sql.NullFloat64{Float64: city.CenterLat, Valid: true},
			CenterLon:   sql.NullFloat64{Float64: city.CenterLon, Valid: true},
		}
		if err := database.UpsertDataset(meta, fc); err != nil {
			return err
		}
		log.Printf("Saved %d parcels for %s", len(fc.Features), code)
	}

	if !skipNetwork {
		lines, err := fetcher.FetchNetwork(ctx, city, htaDataset)
		if err != nil {
			log.Printf("Network %s: %v", commune.Code, err)
		} else {
			meta := &models.DatasetMeta{
				CommuneCode: commune.Code,
				Kind:        models.KindNetwork,
				CityName:    sql.NullString{String: commune.Name, Valid: commune.Name != ""},
			}
			if err := database.UpsertLineDataset(meta, lines); err != nil {
				return err
			}
			log.Printf("Saved %d HTA segments for %s", len(lines), commune.Code)
		}
	}

	if !skipAxes {
		lines, err := fetcher.FetchRoadAxes(ctx, city)
		if err != nil {
			log.Printf("Axes %s: %v", commune.Code, err)
		} else {
			meta := &models.DatasetMeta{
				CommuneCode: commune.Code,
				Kind:        models.KindAxes,
				CityName:    sql.NullString{String: commune.Name, Valid: commune.Name != ""},
			}
			if err := database.UpsertLineDataset(meta, lines); err != nil {
				return err
			}
			log.Printf("Saved %d road axes for %s", len(lines), commune.Code)
		}
	}

	return nil
}
