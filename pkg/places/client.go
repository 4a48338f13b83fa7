package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"

	// minQueryLength is the shortest query worth a network round trip
	minQueryLength = 3
)

// Suggestion is one autocomplete candidate: an opaque place identifier
// plus display text
type Suggestion struct {
	PlaceID string
	Text    string
}

// Address is the normalized address record extracted from a place's
// structured components
type Address struct {
	Full       string `json:"full"`
	Flat       string `json:"flat"`
	Street     string `json:"street"`
	Suburb     string `json:"suburb"`
	PostalCode string `json:"postalCode"`
	State      string `json:"state"`
	Country    string `json:"country"`
}

// Client calls the Places API (New) REST endpoints
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// ClientOption is a functional option for Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. Nil clients are ignored.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithBaseURL overrides the API endpoint, e.g. for tests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// NewClient creates a Places client authenticating with apiKey
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// autocompleteRequest is the Places autocomplete payload
type autocompleteRequest struct {
	Input                string   `json:"input"`
	IncludedPrimaryTypes []string `json:"includedPrimaryTypes,omitempty"`
	LanguageCode         string   `json:"languageCode,omitempty"`
}

// autocompleteResponse mirrors the subset of the reply we consume
type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			PlaceID string `json:"placeId"`
			Text    struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

// addressComponent is one entry of a place's structured component list
type addressComponent struct {
	LongText  string   `json:"longText"`
	ShortText string   `json:"shortText"`
	Types     []string `json:"types"`
}

// placeDetails is the subset of Place Details we request via field mask
type placeDetails struct {
	FormattedAddress  string             `json:"formattedAddress"`
	AddressComponents []addressComponent `json:"addressComponents"`
}

// Autocomplete returns address suggestions for a free-text query. Queries
// shorter than three runes return no suggestions without a network call.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if len([]rune(query)) < minQueryLength {
		return nil, nil
	}

	payload := autocompleteRequest{
		Input:                query,
		IncludedPrimaryTypes: []string{"street_address", "subpremise", "premise", "route", "locality"},
		LanguageCode:         "en",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %w", ErrLookupFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:autocomplete", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	var out autocompleteResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(out.Suggestions))
	for _, s := range out.Suggestions {
		if s.PlacePrediction == nil {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			PlaceID: s.PlacePrediction.PlaceID,
			Text:    s.PlacePrediction.Text.Text,
		})
	}
	return suggestions, nil
}

// Details resolves a place ID into a normalized address record
func (c *Client) Details(ctx context.Context, placeID string) (*Address, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if placeID == "" {
		return nil, ErrPlaceNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/"+placeID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "formattedAddress,addressComponents")

	var place placeDetails
	if err := c.do(req, &place); err != nil {
		return nil, err
	}

	address := extractAddress(place)
	return &address, nil
}

// do executes the request and decodes a 200 response into out
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: decoding response: %w", ErrLookupFailed, err)
		}
		return nil
	case http.StatusNotFound:
		return ErrPlaceNotFound
	default:
		return fmt.Errorf("%w: %d from places api", ErrLookupFailed, resp.StatusCode)
	}
}

// extractAddress maps the provider's component list onto the flat record.
// The mapping is deterministic: long text wins over short, the subpremise
// (unit number) wins over the street number for the flat field, and the
// suburb falls through locality → sublocality → sublocality_level_1.
func extractAddress(place placeDetails) Address {
	get := func(componentType string) string {
		for _, c := range place.AddressComponents {
			for _, t := range c.Types {
				if t == componentType {
					if c.LongText != "" {
						return c.LongText
					}
					return c.ShortText
				}
			}
		}
		return ""
	}

	flat := get("subpremise")
	if flat == "" {
		flat = get("street_number")
	}

	suburb := get("locality")
	if suburb == "" {
		suburb = get("sublocality")
	}
	if suburb == "" {
		suburb = get("sublocality_level_1")
	}

	return Address{
		Full:       place.FormattedAddress,
		Flat:       flat,
		Street:     get("route"),
		Suburb:     suburb,
		PostalCode: get("postal_code"),
		State:      get("administrative_area_level_1"),
		Country:    get("country"),
	}
}
