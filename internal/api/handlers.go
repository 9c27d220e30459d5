package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"hub-search/internal/db"
	"hub-search/internal/geo"
	"hub-search/internal/models"
	"hub-search/internal/pipeline"
)

// Handlers contains HTTP handlers and their dependencies
type Handlers struct {
	db *db.DB
}

// NewHandlers creates a new Handlers instance
func NewHandlers(database *db.DB) *Handlers {
	return &Handlers{db: database}
}

// parcelsResponse is the payload of GET /api/parcels
type parcelsResponse struct {
	Commune         string                     `json:"commune"`
	CityName        string                     `json:"city_name,omitempty"`
	TotalRead       int                        `json:"total_read"`
	TotalRetained   int                        `json:"total_retained"`
	Displayed       int                        `json:"displayed"`
	EmptyConstraint bool                       `json:"empty_constraint,omitempty"`
	Parcels         *geojson.FeatureCollection `json:"parcels"`
}

// ListCommunes handles GET /api/communes
func (h *Handlers) ListCommunes(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.db.ListDatasets()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	byCode := make(map[string]*models.CommuneListItem)
	order := make([]string, 0)
	for _, d := range datasets {
		item, ok := byCode[d.CommuneCode]
		if !ok {
			item = &models.CommuneListItem{CommuneCode: d.CommuneCode}
			byCode[d.CommuneCode] = item
			order = append(order, d.CommuneCode)
		}
		item.Kinds = append(item.Kinds, d.Kind)
		if d.CityName.Valid && item.CityName == "" {
			item.CityName = d.CityName.String
		}
		if d.HasCenter() && item.CenterLat == nil {
			lat, lon := d.CenterLat.Float64, d.CenterLon.Float64
			item.CenterLat, item.CenterLon = &lat, &lon
		}
		switch d.Kind {
		case models.KindParcels, models.KindMerged:
			item.ParcelCount = d.FeatureCount
		case models.KindNetwork:
			item.NetworkLines = d.FeatureCount
		case models.KindAxes:
			item.AxisLines = d.FeatureCount
		}
	}

	communes := make([]*models.CommuneListItem, 0, len(order))
	for _, code := range order {
		communes = append(communes, byCode[code])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"communes": communes,
		"count":    len(communes),
	})
}

// ListParcels handles GET /api/parcels. It runs the filter pipeline over the
// stored datasets of one commune and returns the surviving parcels.
func (h *Handlers) ListParcels(w http.ResponseWriter, r *http.Request) {
	communeCode := r.URL.Query().Get("commune")
	if communeCode == "" {
		http.Error(w, "missing commune parameter", http.StatusBadRequest)
		return
	}

	cfg := parseConfig(r.URL.Query())

	// Multi-district cities are filtered over their merged collection.
	meta, parcels, err := h.db.GetDataset(communeCode, models.KindMerged)
	if errors.Is(err, db.ErrNotFound) {
		meta, parcels, err = h.db.GetDataset(communeCode, models.KindParcels)
	}
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "no parcel data for commune "+communeCode, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	constraints, center, err := h.buildConstraints(communeCode, meta, cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() {
		for _, c := range constraints {
			if c.Region != nil {
				c.Region.Destroy()
			}
		}
	}()

	filtered, summary, err := pipeline.Filter(parcels, cfg, constraints)
	resp := parcelsResponse{
		Commune:       communeCode,
		TotalRead:     summary.TotalRead,
		TotalRetained: summary.TotalRetained,
	}
	if meta.CityName.Valid {
		resp.CityName = meta.CityName.String
	}
	switch {
	case errors.Is(err, pipeline.ErrEmptyConstraint):
		// Fail closed, but report it: "0 results" and "constraint had no
		// data" are different answers.
		log.Printf("Commune %s: %v", communeCode, err)
		resp.EmptyConstraint = true
	case err != nil:
		var dfe *pipeline.DataFormatError
		if errors.As(err, &dfe) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if cfg.DisplayPercent < 100 {
		filtered = pipeline.SampleForDisplay(filtered, cfg.DisplayPercent, cfg.Seed)
	}
	if center != nil {
		annotateDistances(filtered, *center)
	}

	resp.Displayed = len(filtered.Features)
	resp.Parcels = filtered

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// buildConstraints assembles the urban, network and axis buffer constraints
// in their historical application order. Missing line datasets leave a nil
// region so an enabled constraint fails closed in the filter.
func (h *Handlers) buildConstraints(communeCode string, meta *models.DatasetMeta, cfg pipeline.Config) ([]pipeline.Constraint, *geo.UrbanCenter, error) {
	constraints := make([]pipeline.Constraint, 0, 3)

	var center *geo.UrbanCenter
	if meta.HasCenter() {
		center = &geo.UrbanCenter{Lat: meta.CenterLat.Float64, Lon: meta.CenterLon.Float64}
	}

	urban := pipeline.Constraint{Name: "urban", Enabled: cfg.UrbanEnabled}
	if cfg.UrbanEnabled && center != nil {
		region, err := geo.PointBuffer(centerPoint(*center), geo.KmToDegrees(cfg.UrbanBufferKm))
		if err != nil {
			return nil, nil, err
		}
		urban.Region = region
	}
	constraints = append(constraints, urban)

	network, err := h.lineConstraint(communeCode, models.KindNetwork, "network",
		cfg.NetworkEnabled, geo.MetersToDegrees(cfg.NetworkBufferM))
	if err != nil {
		return nil, nil, err
	}
	constraints = append(constraints, network)

	axis, err := h.lineConstraint(communeCode, models.KindAxes, "axis",
		cfg.AxisEnabled, geo.MetersToDegrees(cfg.AxisBufferM))
	if err != nil {
		return nil, nil, err
	}
	constraints = append(constraints, axis)

	return constraints, center, nil
}

func (h *Handlers) lineConstraint(communeCode, kind, name string, enabled bool, radiusDeg float64) (pipeline.Constraint, error) {
	c := pipeline.Constraint{Name: name, Enabled: enabled}
	if !enabled {
		return c, nil
	}

	lines, err := h.db.GetLines(communeCode, kind)
	if errors.Is(err, db.ErrNotFound) {
		return c, nil // nil region, fails closed in the filter
	}
	if err != nil {
		return c, err
	}

	region, err := geo.LineNetworkBuffer(lines, radiusDeg)
	if err != nil {
		return c, err
	}
	c.Region = region
	return c, nil
}

func centerPoint(c geo.UrbanCenter) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// annotateDistances adds a distance_urban_km property to every parcel, from
// its centroid to the urban center.
func annotateDistances(fc *geojson.FeatureCollection, center geo.UrbanCenter) {
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		centroid, _ := planar.CentroidArea(f.Geometry)
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties["distance_urban_km"] = center.DistanceTo(centroid[1], centroid[0])
	}
}

// parseConfig reads the pipeline criteria from query parameters, falling
// back to the historical defaults.
func parseConfig(q url.Values) pipeline.Config {
	cfg := pipeline.DefaultConfig()

	get := q.Get

	if v := get("area_min"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AreaThreshold = val
		}
	}
	if v := get("urban_km"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.UrbanBufferKm = val
		}
	}
	if v := get("urban"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.UrbanEnabled = val
		}
	}
	if v := get("network_m"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.NetworkBufferM = val
		}
	}
	if v := get("network"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.NetworkEnabled = val
		}
	}
	if v := get("axis_m"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AxisBufferM = val
		}
	}
	if v := get("axis"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.AxisEnabled = val
		}
	}
	if v := get("display_pct"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 && val <= 100 {
			cfg.DisplayPercent = val
		}
	}
	if v := get("seed"); v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = val
		}
	}

	return cfg
}
