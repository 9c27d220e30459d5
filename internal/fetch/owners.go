package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hub-search/internal/models"
)

// OwnerClient queries the MAJIC owner API. It implements
// pipeline.OwnerLookup; callers are expected to batch identifiers (see
// pipeline.DefaultOwnerBatchSize) so the id_par[in] parameter stays under
// the URL-length limit.
type OwnerClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	userAgent string
}

// NewOwnerClient creates an owner API client. requestsPerSec <= 0 disables
// pacing.
func NewOwnerClient(baseURL string, requestsPerSec float64) *OwnerClient {
	var limiter *rate.Limiter
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	return &OwnerClient{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   limiter,
		baseURL:   baseURL,
		userAgent: DefaultConfig().UserAgent,
	}
}

// ownerResponse mirrors the owner API payload: one entry per owner with the
// parcels attached to it.
type ownerResponse struct {
	Proprietaires []struct {
		IDPersonne   string `json:"id_pers"`
		Denomination string `json:"denomination"`
		Parcelles    []struct {
			IDPar string `json:"id_par"`
		} `json:"parcelles"`
	} `json:"proprietaires"`
}

// LookupOwners resolves one batch of parcel identifiers to owner records.
func (c *OwnerClient) LookupOwners(ctx context.Context, parcelIDs []string) ([]models.OwnerRecord, error) {
	if len(parcelIDs) == 0 {
		return nil, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("id_par[in]", strings.Join(parcelIDs, ","))
	params.Set("sogefi_annee_archivee", "_last_")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var or ownerResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	records := make([]models.OwnerRecord, 0, len(or.Proprietaires))
	for _, p := range or.Proprietaires {
		rec := models.OwnerRecord{
			OwnerID: p.IDPersonne,
			Name:    p.Denomination,
		}
		for _, parcelle := range p.Parcelles {
			if parcelle.IDPar != "" {
				rec.ParcelIDs = append(rec.ParcelIDs, parcelle.IDPar)
			}
		}
		if rec.OwnerID == "" && len(rec.ParcelIDs) == 0 {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
