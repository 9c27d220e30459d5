package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"hub-search/internal/models"
)

// tableLookup is an in-memory OwnerLookup recording every batch it serves.
type tableLookup struct {
	ownersByParcel map[string]models.OwnerRecord
	batches        [][]string
	failBatch      int // 1-based index of a batch to fail, 0 for none
}

func (l *tableLookup) LookupOwners(_ context.Context, parcelIDs []string) ([]models.OwnerRecord, error) {
	l.batches = append(l.batches, parcelIDs)
	if l.failBatch == len(l.batches) {
		return nil, errors.New("upstream unavailable")
	}

	merged := make(map[string]*models.OwnerRecord)
	for _, pid := range parcelIDs {
		rec, ok := l.ownersByParcel[pid]
		if !ok {
			continue
		}
		agg, ok := merged[rec.OwnerID]
		if !ok {
			agg = &models.OwnerRecord{OwnerID: rec.OwnerID, Name: rec.Name}
			merged[rec.OwnerID] = agg
		}
		agg.ParcelIDs = append(agg.ParcelIDs, pid)
	}

	out := make([]models.OwnerRecord, 0, len(merged))
	for _, rec := range merged {
		out = append(out, *rec)
	}
	return out, nil
}

func TestEnrichBatchPartition(t *testing.T) {
	lookup := &tableLookup{ownersByParcel: map[string]models.OwnerRecord{}}

	// 120 qualifying parcels, with every id duplicated once in the input
	// collection: dedup must leave ceil(120/50) = 3 calls.
	fc := collection()
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("par%03d", i)
		fc.Append(squareParcel(id, float64(i), 0, 5000.0))
		fc.Append(squareParcel(id, float64(i), 1, 5000.0))
		lookup.ownersByParcel[id] = models.OwnerRecord{OwnerID: "o1", Name: "SNC Foncière"}
	}

	enricher := NewEnricher(lookup, 0) // default batch size
	if _, err := enricher.Enrich(context.Background(), fc, "", 4000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lookup.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(lookup.batches))
	}
	seen := make(map[string]bool)
	total := 0
	for _, batch := range lookup.batches {
		if len(batch) > DefaultOwnerBatchSize {
			t.Fatalf("batch exceeds size limit: %d", len(batch))
		}
		for _, id := range batch {
			if seen[id] {
				t.Fatalf("id %s repeated across batches", id)
			}
			seen[id] = true
			total++
		}
	}
	if total != 120 {
		t.Fatalf("expected 120 unique ids across batches, got %d", total)
	}
}

func TestEnrichWritesOwnerNames(t *testing.T) {
	fc := collection(
		squareParcel("p1", 0, 0, 5000.0),
		squareParcel("p2", 1, 0, 5000.0),
		squareParcel("small", 2, 0, 100.0), // below threshold, never queried
	)
	lookup := &tableLookup{ownersByParcel: map[string]models.OwnerRecord{
		"p1": {OwnerID: "o1", Name: "Commune de Lille"},
		"p2": {OwnerID: "o2", Name: "SCI du Canal"},
	}}

	enricher := NewEnricher(lookup, 50)
	n, err := enricher.Enrich(context.Background(), fc, "contenance", 4000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 enriched, got %d", n)
	}

	if got := fc.Features[0].Properties[OwnerProperty]; got != "Commune de Lille" {
		t.Errorf("p1 owner = %v", got)
	}
	if got := fc.Features[1].Properties[OwnerProperty]; got != "SCI du Canal" {
		t.Errorf("p2 owner = %v", got)
	}
	if _, ok := fc.Features[2].Properties[OwnerProperty]; ok {
		t.Error("sub-threshold parcel should not be enriched")
	}
	for _, batch := range lookup.batches {
		for _, id := range batch {
			if id == "small" {
				t.Fatal("sub-threshold parcel id was queried")
			}
		}
	}
}

func TestEnrichIsIdempotent(t *testing.T) {
	fc := collection(squareParcel("p1", 0, 0, 5000.0))
	lookup := &tableLookup{ownersByParcel: map[string]models.OwnerRecord{
		"p1": {OwnerID: "o1", Name: "GAEC des Prés"},
	}}
	enricher := NewEnricher(lookup, 50)

	for i := 0; i < 2; i++ {
		if _, err := enricher.Enrich(context.Background(), fc, "", 4000); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	if got := fc.Features[0].Properties[OwnerProperty]; got != "GAEC des Prés" {
		t.Fatalf("owner after two passes = %v", got)
	}
}

func TestEnrichFailedBatchIsSkipped(t *testing.T) {
	lookup := &tableLookup{ownersByParcel: map[string]models.OwnerRecord{}, failBatch: 1}
	fc := collection()
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("p%d", i)
		fc.Append(squareParcel(id, float64(i), 0, 5000.0))
		lookup.ownersByParcel[id] = models.OwnerRecord{OwnerID: "o1", Name: "Indivision X"}
	}

	// Batch size 2: first batch fails, second succeeds.
	enricher := NewEnricher(lookup, 2)
	n, err := enricher.Enrich(context.Background(), fc, "", 4000)
	if err != nil {
		t.Fatalf("a failed batch must not fail the pass: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 parcels from the surviving batch, got %d", n)
	}
	if len(lookup.batches) != 2 {
		t.Fatalf("expected both batches attempted, got %d", len(lookup.batches))
	}
}

func TestEnrichOwnerSetUnionAcrossBatches(t *testing.T) {
	// One owner spread over two batches: its parcel set must accumulate
	// without duplication.
	lookup := &tableLookup{ownersByParcel: map[string]models.OwnerRecord{
		"a1": {OwnerID: "o9", Name: "SAFER"},
		"a2": {OwnerID: "o9", Name: "SAFER"},
		"a3": {OwnerID: "o9", Name: "SAFER"},
	}}
	fc := collection(
		squareParcel("a1", 0, 0, 5000.0),
		squareParcel("a2", 1, 0, 5000.0),
		squareParcel("a3", 2, 0, 5000.0),
	)
	_ = fc

	enricher := NewEnricher(lookup, 2)
	owners := enricher.lookupAll(context.Background(), []string{"a1", "a2", "a3"})

	rec, ok := owners["o9"]
	if !ok {
		t.Fatal("owner o9 missing")
	}
	if len(rec.ParcelIDs) != 3 {
		t.Fatalf("expected 3 parcels for o9, got %v", rec.ParcelIDs)
	}
}
