package pipeline

import (
	"context"
	"log"
	"sort"

	"github.com/paulmach/orb/geojson"

	"hub-search/internal/models"
)

// OwnerProperty is the parcel attribute the enricher writes.
const OwnerProperty = "owner_name"

// DefaultOwnerBatchSize keeps the id_par[in] query parameter under the
// upstream URL-length limit. 50 ids is the documented working value.
const DefaultOwnerBatchSize = 50

// OwnerLookup resolves a batch of parcel identifiers to owner records. The
// production implementation lives in internal/fetch; tests substitute an
// in-memory table.
type OwnerLookup interface {
	LookupOwners(ctx context.Context, parcelIDs []string) ([]models.OwnerRecord, error)
}

// Enricher annotates parcels with the name of their owner. Ownership data is
// expensive to fetch, so only parcels above the siting area threshold are
// queried.
type Enricher struct {
	lookup    OwnerLookup
	batchSize int
}

// NewEnricher creates an enricher over the given lookup collaborator.
// batchSize <= 0 selects DefaultOwnerBatchSize.
func NewEnricher(lookup OwnerLookup, batchSize int) *Enricher {
	if batchSize <= 0 {
		batchSize = DefaultOwnerBatchSize
	}
	return &Enricher{lookup: lookup, batchSize: batchSize}
}

// Enrich writes the OwnerProperty attribute onto every qualifying parcel for
// which the lookup returned an owner. A failed batch is logged and skipped;
// its parcels simply stay unenriched. Returns the number of parcels
// annotated.
func (e *Enricher) Enrich(ctx context.Context, fc *geojson.FeatureCollection, areaField string, areaThreshold float64) (int, error) {
	if areaField == "" {
		areaField = DefaultAreaField
	}

	ids := e.qualifyingIDs(fc, areaField, areaThreshold)
	if len(ids) == 0 {
		return 0, nil
	}

	owners := e.lookupAll(ctx, ids)

	// Invert owner → parcels into parcel → owner name. Batches can overlap
	// in their responses; the map write is idempotent either way.
	nameByParcel := make(map[string]string)
	for _, ownerID := range sortedKeys(owners) {
		rec := owners[ownerID]
		name := rec.Name
		if name == "" {
			name = ownerID
		}
		for _, pid := range rec.ParcelIDs {
			if _, taken := nameByParcel[pid]; !taken {
				nameByParcel[pid] = name
			}
		}
	}

	enriched := 0
	for _, f := range fc.Features {
		name, ok := nameByParcel[FeatureID(f)]
		if !ok {
			continue
		}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties[OwnerProperty] = name
		enriched++
	}
	return enriched, nil
}

// qualifyingIDs collects the deduplicated, sorted identifiers of parcels
// whose area exceeds the threshold. Sorting keeps the batch partition
// reproducible. Parcels with a malformed or missing area attribute are
// skipped here; enrichment is supplementary display data.
func (e *Enricher) qualifyingIDs(fc *geojson.FeatureCollection, areaField string, threshold float64) []string {
	seen := make(map[string]struct{})
	for _, f := range fc.Features {
		id := FeatureID(f)
		if id == "" {
			continue
		}
		area, err := coerceNumeric(areaField, f.Properties[areaField])
		if err != nil || area <= threshold {
			continue
		}
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// lookupAll queries the collaborator batch by batch and merges the responses
// into one owner → parcel-set mapping. An owner reported by several batches
// accumulates parcels without duplication.
func (e *Enricher) lookupAll(ctx context.Context, ids []string) map[string]models.OwnerRecord {
	type ownerAgg struct {
		name    string
		parcels map[string]struct{}
	}
	aggs := make(map[string]*ownerAgg)

	for start := 0; start < len(ids); start += e.batchSize {
		end := start + e.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		records, err := e.lookup.LookupOwners(ctx, batch)
		if err != nil {
			log.Printf("Owner lookup failed for batch %d-%d: %v", start, end, err)
			continue
		}

		for _, rec := range records {
			agg, ok := aggs[rec.OwnerID]
			if !ok {
				agg = &ownerAgg{parcels: make(map[string]struct{})}
				aggs[rec.OwnerID] = agg
			}
			if agg.name == "" {
				agg.name = rec.Name
			}
			for _, pid := range rec.ParcelIDs {
				agg.parcels[pid] = struct{}{}
			}
		}
	}

	owners := make(map[string]models.OwnerRecord, len(aggs))
	for ownerID, agg := range aggs {
		parcels := make([]string, 0, len(agg.parcels))
		for pid := range agg.parcels {
			parcels = append(parcels, pid)
		}
		sort.Strings(parcels)
		owners[ownerID] = models.OwnerRecord{
			OwnerID:   ownerID,
			Name:      agg.name,
			ParcelIDs: parcels,
		}
	}
	return owners
}

func sortedKeys(m map[string]models.OwnerRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
