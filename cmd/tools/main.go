package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/paulmach/orb/geojson"

	"hub-search/internal/db"
	"hub-search/internal/fetch"
	"hub-search/internal/models"
	"hub-search/internal/pipeline"
)

func main() {
	// Sub-commands
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	os.Args = os.Args[1:] // Shift args for flag parsing

	switch cmd {
	case "merge":
		mergeArrondissements()
	case "enrich":
		enrichOwners()
	case "communes":
		listCommunes()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tools <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  merge     Merge arrondissement parcel datasets into one commune dataset")
	fmt.Println("  enrich    Annotate parcels with owner names from the MAJIC API")
	fmt.Println("  communes  List the commune catalogue and stored datasets")
}

func mergeArrondissements() {
	dbPath := flag.String("db", "data/hub-search.db", "Database path")
	code := flag.String("code", "", "INSEE code of the multi-district commune (75056, 13055, 69123)")
	threshold := flag.Float64("threshold", 4000, "Area threshold in m²; only larger parcels are kept")
	cleanup := flag.Bool("cleanup", false, "Delete the per-district datasets after a successful merge")
	flag.Parse()

	districts, ok := fetch.Arrondissements[*code]
	if !ok {
		log.Fatalf("No arrondissements defined for %q", *code)
	}

	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	var collections []*geojson.FeatureCollection
	var loaded []string
	var center *models.DatasetMeta

	for _, district := range districts {
		meta, fc, err := database.GetDataset(district, models.KindParcels)
		if errors.Is(err, db.ErrNotFound) {
			log.Printf("District %s has no parcel dataset, skipping", district)
			continue
		}
		if err != nil {
			log.Fatalf("Failed to load district %s: %v", district, err)
		}
		collections = append(collections, fc)
		loaded = append(loaded, district)
		if center == nil && meta.HasCenter() {
			center = meta
		}
	}

	if len(collections) == 0 {
		log.Fatalf("No district datasets found for %s; run the fetcher first", *code)
	}

	merged, stats := pipeline.Merge(collections, pipeline.DefaultAreaField, *threshold)
	log.Printf("Merge read %d features, retained %d", stats.TotalRead, stats.TotalRetained)

	meta := &models.DatasetMeta{
		CommuneCode: *code,
		Kind:        models.KindMerged,
		CityName:    sql.NullString{String: fetch.CommuneName(*code), Valid: fetch.CommuneName(*code) != ""},
	}
	if center != nil {
		meta.CenterLat = center.CenterLat
		meta.CenterLon = center.CenterLon
	}
	if err := database.UpsertDataset(meta, merged); err != nil {
		log.Fatalf("Failed to save merged dataset: %v", err)
	}
	log.Printf("Saved merged dataset for %s (%d parcels)", *code, len(merged.Features))

	// Cleanup is irreversible; it only runs once the merged row is written.
	if *cleanup {
		for _, district := range loaded {
			if err := database.DeleteDataset(district, models.KindParcels); err != nil {
				log.Printf("Failed to delete district %s: %v", district, err)
				continue
			}
			log.Printf("Deleted district dataset %s", district)
		}
	}
}

func enrichOwners() {
	dbPath := flag.String("db", "data/hub-search.db", "Database path")
	code := flag.String("code", "", "INSEE code of the commune to enrich")
	threshold := flag.Float64("threshold", 4000, "Only parcels above this area (m²) are queried")
	batchSize := flag.Int("batch", pipeline.DefaultOwnerBatchSize, "Parcel ids per owner API call")
	rps := flag.Float64("rps", 1, "Max owner API requests per second")
	ownersURL := flag.String("owners-url", "", "Base URL of the owner lookup API")
	flag.Parse()

	if *code == "" {
		log.Fatal("Missing -code")
	}
	if *ownersURL == "" {
		log.Fatal("Missing -owners-url")
	}

	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	kind := models.KindMerged
	meta, fc, err := database.GetDataset(*code, kind)
	if errors.Is(err, db.ErrNotFound) {
		kind = models.KindParcels
		meta, fc, err = database.GetDataset(*code, kind)
	}
	if err != nil {
		log.Fatalf("Failed to load parcels for %s: %v", *code, err)
	}

	client := fetch.NewOwnerClient(*ownersURL, *rps)
	enricher := pipeline.NewEnricher(client, *batchSize)

	enriched, err := enricher.Enrich(context.Background(), fc, pipeline.DefaultAreaField, *threshold)
	if err != nil {
		log.Fatalf("Enrichment failed: %v", err)
	}
	log.Printf("Annotated %d of %d parcels with owner names", enriched, len(fc.Features))

	if err := database.UpsertDataset(meta, fc); err != nil {
		log.Fatalf("Failed to save enriched dataset: %v", err)
	}
	log.Printf("Saved enriched dataset %s/%s", *code, kind)
}

func listCommunes() {
	dbPath := flag.String("db", "data/hub-search.db", "Database path")
	flag.Parse()

	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	stored, err := database.ListDatasets()
	if err != nil {
		log.Fatalf("Failed to list datasets: %v", err)
	}
	byCode := make(map[string][]models.DatasetMeta)
	for _, d := range stored {
		byCode[d.CommuneCode] = append(byCode[d.CommuneCode], d)
	}

	fmt.Println("Catalogue:")
	for _, c := range fetch.Communes {
		line := fmt.Sprintf("  %s  %-12s", c.Code, c.Name)
		for _, d := range byCode[c.Code] {
			line += fmt.Sprintf(" %s=%d", d.Kind, d.FeatureCount)
		}
		if districts, ok := fetch.Arrondissements[c.Code]; ok {
			line += fmt.Sprintf(" (%d arrondissements)", len(districts))
		}
		fmt.Println(line)
	}
}
