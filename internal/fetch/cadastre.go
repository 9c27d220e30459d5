package fetch

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// FetchParcels downloads the cadastral parcel FeatureCollection of one
// commune or arrondissement from the cadastre bundler.
func (f *Fetcher) FetchParcels(ctx context.Context, communeCode string) (*geojson.FeatureCollection, error) {
	url := fmt.Sprintf("%s/communes/%s/geojson/parcelles", f.cadastreURL, communeCode)

	body, err := f.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("cadastre %s: %w", communeCode, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("cadastre %s: parsing parcels: %w", communeCode, err)
	}
	return fc, nil
}
