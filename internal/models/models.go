package models

import (
	"database/sql"
	"time"
)

// Dataset kinds stored per commune.
const (
	KindParcels = "parcels" // raw cadastral parcel FeatureCollection
	KindNetwork = "network" // HTA medium-voltage line features
	KindAxes    = "axes"    // main road axis line features
	KindMerged  = "merged"  // arrondissements merged into one collection
)

// DatasetMeta describes one stored per-commune dataset
type DatasetMeta struct {
	ID           int64           `db:"id" json:"id"`
	CommuneCode  string          `db:"commune_code" json:"commune_code"`
	Kind         string          `db:"kind" json:"kind"`
	CityName     sql.NullString  `db:"city_name" json:"city_name"`
	CenterLat    sql.NullFloat64 `db:"center_lat" json:"center_lat"`
	CenterLon    sql.NullFloat64 `db:"center_lon" json:"center_lon"`
	FeatureCount int             `db:"feature_count" json:"feature_count"`
	FetchedAt    time.Time       `db:"fetched_at" json:"fetched_at"`
}

// HasCenter reports whether the dataset carries an urban center.
func (m *DatasetMeta) HasCenter() bool {
	return m.CenterLat.Valid && m.CenterLon.Valid
}

// OwnerRecord maps an owner to the parcels it owns
type OwnerRecord struct {
	OwnerID   string   `json:"owner_id"`
	Name      string   `json:"name,omitempty"`
	ParcelIDs []string `json:"parcel_ids"`
}

// CommuneListItem is a lightweight dataset summary for the API
type CommuneListItem struct {
	CommuneCode  string   `json:"commune_code"`
	CityName     string   `json:"city_name,omitempty"`
	CenterLat    *float64 `json:"center_lat,omitempty"`
	CenterLon    *float64 `json:"center_lon,omitempty"`
	Kinds        []string `json:"kinds"`
	ParcelCount  int      `json:"parcel_count"`
	NetworkLines int      `json:"network_lines"`
	AxisLines    int      `json:"axis_lines"`
}
