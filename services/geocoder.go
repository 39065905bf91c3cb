package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"civicpulse-be/config"

	"go.uber.org/zap"
)

// GeoResult is the best-effort reverse-geocoding outcome for a report.
type GeoResult struct {
	PostalCode       string
	FormattedAddress string
}

// Geocoder turns coordinates into a postal code and address string.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) GeoResult
}

// accuracyThresholdMeters is the maximum match distance for which the precise
// formatted address is trusted. Weaker matches get a degraded area string.
const accuracyThresholdMeters = 100

// geoFallback is returned on any network or parse failure; intake proceeds
// without location enrichment.
func geoFallback() GeoResult {
	return GeoResult{PostalCode: "N/A", FormattedAddress: "Address not found"}
}

// GeoapifyGeocoder calls the Geoapify reverse-geocoding API.
type GeoapifyGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewGeoapifyGeocoder(cfg config.Settings, log *zap.Logger) *GeoapifyGeocoder {
	return &GeoapifyGeocoder{
		apiKey:  cfg.GeoapifyAPIKey,
		baseURL: strings.TrimRight(cfg.GeoapifyBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type geoapifyProperties struct {
	Distance  float64 `json:"distance"`
	Formatted string  `json:"formatted"`
	Suburb    string  `json:"suburb"`
	City      string  `json:"city"`
	Postcode  string  `json:"postcode"`
}

type geoapifyResponse struct {
	Features []struct {
		Properties geoapifyProperties `json:"properties"`
	} `json:"features"`
}

// ReverseGeocode resolves (lat, lng) to a postal code and address. It never
// returns an error; failures collapse into the "Address not found" fallback.
func (g *GeoapifyGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) GeoResult {
	props, err := g.lookup(ctx, lat, lng)
	if err != nil {
		g.log.Warn("reverse geocoding failed, storing report without address",
			zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		return geoFallback()
	}

	result := GeoResult{PostalCode: props.Postcode}
	if result.PostalCode == "" {
		result.PostalCode = "N/A"
	}

	// Accuracy gate: a match further than the threshold must not leak a
	// precise street address that is likely wrong.
	if props.Distance > accuracyThresholdMeters {
		area := props.Suburb
		if area == "" {
			area = props.City
		}
		result.FormattedAddress = fmt.Sprintf("Approx. location near %s, %s", area, props.City)
	} else {
		result.FormattedAddress = props.Formatted
	}
	return result
}

func (g *GeoapifyGeocoder) lookup(ctx context.Context, lat, lng float64) (geoapifyProperties, error) {
	var props geoapifyProperties

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("apiKey", g.apiKey)

	endpoint := g.baseURL + "/v1/geocode/reverse?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return props, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return props, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return props, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return props, fmt.Errorf("geoapify returned status %d: %s", resp.StatusCode, string(body))
	}

	var geoResp geoapifyResponse
	if err := json.Unmarshal(body, &geoResp); err != nil {
		return props, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(geoResp.Features) == 0 {
		return props, fmt.Errorf("geoapify returned no features")
	}
	return geoResp.Features[0].Properties, nil
}
