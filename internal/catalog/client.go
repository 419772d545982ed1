// Package catalog is a read-only client for the external movie-catalog API.
// The account subsystem has no dependency on it; it only backs the discovery
// surface of the web client.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoMatches indicates the upstream catalog returned no movies for the
// given filters.
var ErrNoMatches = errors.New("no movies match the given filters")

// Client calls a TMDB-compatible discover endpoint.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a catalog client. token is the upstream API bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Filters narrow a discovery query. Zero values mean "any".
type Filters struct {
	Genre          string
	Decade         int // start year of a decade, e.g. 1990
	Language       string
	HighRated      bool
	PopularOnly    bool
	FamilyFriendly bool
}

// Movie is the subset of the upstream movie shape the client surfaces.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

type discoverResponse struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

// Discover returns one page of movies matching the filters.
func (c *Client) Discover(ctx context.Context, f Filters, page int) ([]Movie, error) {
	params := url.Values{}
	params.Set("include_adult", "false")
	params.Set("sort_by", "popularity.desc")
	params.Set("page", strconv.Itoa(page))

	if f.Genre != "" {
		params.Set("with_genres", f.Genre)
	}
	if f.Language != "" {
		params.Set("with_original_language", f.Language)
	}
	if f.Decade != 0 {
		params.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", f.Decade))
		params.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", f.Decade+9))
	}
	if f.HighRated {
		params.Set("vote_average.gte", "7.2")
	}
	if f.PopularOnly {
		params.Set("vote_count.gte", "250")
	}
	if f.FamilyFriendly {
		params.Set("certification_country", "US")
		params.Set("certification.lte", "PG-13")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/discover/movie?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build discover request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discover movies: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discover movies: upstream returned %d", resp.StatusCode)
	}

	var body discoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode discover response: %w", err)
	}
	return body.Results, nil
}

// Suggest picks one movie at random from a random early result page, the
// "surprise me" behavior of the discovery UI.
func (c *Client) Suggest(ctx context.Context, f Filters) (*Movie, error) {
	page := rand.IntN(5) + 1
	movies, err := c.Discover(ctx, f, page)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 && page != 1 {
		// Sparse filters may not fill five pages; fall back to the first.
		movies, err = c.Discover(ctx, f, 1)
		if err != nil {
			return nil, err
		}
	}
	if len(movies) == 0 {
		return nil, ErrNoMatches
	}

	pick := movies[rand.IntN(len(movies))]
	return &pick, nil
}
