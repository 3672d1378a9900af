// Package marvel is a client for the Marvel Comics REST API
// (https://developer.marvel.com/docs). Every call is authenticated with
// a time-based MD5 signature and paginated endpoints are consumed to
// completion. Failures surface as either *CommunicationError or
// *NotFoundError and are never retried or recovered locally.
package marvel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const BaseURL = "https://gateway.marvel.com/v1/public"

// pageSize is the maximum number of results the API returns per call.
const pageSize = 100

// Character represents a Marvel character.
type Character struct {
	ID           int
	Name         string
	Description  string
	ThumbnailURL string
}

// Credit is one creator credit on a story.
type Credit struct {
	Name string
	Role string
}

// Story represents a Marvel comic story. AttributionHTML carries the
// legally required credit markup that must be rendered alongside the
// story data. CharacterURLs are the resource URIs of the characters
// appearing in the story, resolvable with CharacterByURL.
type Story struct {
	ID              int
	Title           string
	Description     string
	AttributionHTML string
	Creators        []Credit
	Series          []string
	Events          []string
	CharacterURLs   []string
}

// Client issues authenticated requests against the Marvel API. All
// operations are stateless request/response round trips; the only
// state held is the immutable credential pair.
type Client struct {
	client  *http.Client
	baseURL string
	creds   Credentials
	now     func() time.Time
}

// NewClient creates a Client using the given HTTP client, which should
// carry a bounded timeout.
func NewClient(client *http.Client, creds Credentials) *Client {
	return NewClientWithBaseURL(client, creds, BaseURL)
}

// NewClientWithBaseURL creates a Client against a custom base URL (for testing).
func NewClientWithBaseURL(client *http.Client, creds Credentials, baseURL string) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		client:  client,
		baseURL: baseURL,
		creds:   creds,
		now:     time.Now,
	}
}

// API wire format. Every endpoint wraps its results in the same
// envelope; attributionHTML lives on the envelope, not on the results.
type characterEnvelope struct {
	AttributionHTML string `json:"attributionHTML"`
	Data            struct {
		Total   int               `json:"total"`
		Count   int               `json:"count"`
		Results []characterResult `json:"results"`
	} `json:"data"`
}

type characterResult struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   struct {
		Path      string `json:"path"`
		Extension string `json:"extension"`
	} `json:"thumbnail"`
}

type storyEnvelope struct {
	AttributionHTML string `json:"attributionHTML"`
	Data            struct {
		Total   int           `json:"total"`
		Count   int           `json:"count"`
		Results []storyResult `json:"results"`
	} `json:"data"`
}

type storyResult struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Creators    itemList `json:"creators"`
	Series      itemList `json:"series"`
	Events      itemList `json:"events"`
	Characters  itemList `json:"characters"`
}

type itemList struct {
	Items []struct {
		ResourceURI string `json:"resourceURI"`
		Name        string `json:"name"`
		Role        string `json:"role"`
	} `json:"items"`
}

// get performs a signed GET against rawURL and decodes the JSON
// response into out. Transport failures, timeouts, non-2xx statuses
// and undecodable bodies all surface as *CommunicationError.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values, out any) error {
	full := rawURL + "?" + c.authParams(params).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return &CommunicationError{URL: rawURL, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &CommunicationError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &CommunicationError{Status: resp.StatusCode, URL: rawURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &CommunicationError{URL: rawURL, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// ResolveCharacterID looks up a character's unique ID by exact full
// name (e.g. "Iron Man"). Returns *NotFoundError if no character
// matches the name.
func (c *Client) ResolveCharacterID(ctx context.Context, name string) (int, error) {
	var env characterEnvelope
	params := url.Values{"name": {name}}
	if err := c.get(ctx, c.baseURL+"/characters", params, &env); err != nil {
		return 0, err
	}
	if env.Data.Count < 1 {
		return 0, &NotFoundError{Resource: fmt.Sprintf("character %q", name)}
	}
	return env.Data.Results[0].ID, nil
}

// CharacterByURL fetches a character from the fully-qualified resource
// URL embedded in story data. The API returns exactly one result for a
// character URI.
func (c *Client) CharacterByURL(ctx context.Context, charURL string) (*Character, error) {
	var env characterEnvelope
	if err := c.get(ctx, charURL, nil, &env); err != nil {
		return nil, err
	}
	if len(env.Data.Results) == 0 {
		return nil, &NotFoundError{Resource: fmt.Sprintf("character at %s", charURL)}
	}
	r := env.Data.Results[0]
	return &Character{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		ThumbnailURL: r.Thumbnail.Path + "." + r.Thumbnail.Extension,
	}, nil
}

// StoryIDs returns the IDs of every story the character appears in, in
// page order. The stories endpoint caps results at 100 per call, so the
// listing walks offsets 0, 100, 200, ... until the reported total is
// consumed. Pagination is strictly sequential and all-or-nothing: if
// any page request fails, the whole listing fails. Returns
// *NotFoundError if the character has no stories.
//
// Popular characters appear in thousands of stories, so this can issue
// many sequential requests.
func (c *Client) StoryIDs(ctx context.Context, characterID int) ([]int, error) {
	endpoint := fmt.Sprintf("%s/characters/%d/stories", c.baseURL, characterID)
	params := url.Values{"limit": {strconv.Itoa(pageSize)}}

	var env storyEnvelope
	if err := c.get(ctx, endpoint, params, &env); err != nil {
		return nil, err
	}

	total := env.Data.Total
	if total < 1 {
		return nil, &NotFoundError{Resource: fmt.Sprintf("stories for character %d", characterID)}
	}

	pages := (total + pageSize - 1) / pageSize
	ids := make([]int, 0, total)
	for page := 0; ; page++ {
		for _, r := range env.Data.Results {
			ids = append(ids, r.ID)
		}
		if page+1 >= pages {
			break
		}
		params.Set("offset", strconv.Itoa((page+1)*pageSize))
		env = storyEnvelope{}
		if err := c.get(ctx, endpoint, params, &env); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// Story fetches a single story by ID. The attribution HTML is taken
// from the response envelope and attached to the returned Story.
// Returns *NotFoundError if the story ID does not exist.
func (c *Client) Story(ctx context.Context, id int) (*Story, error) {
	var env storyEnvelope
	if err := c.get(ctx, fmt.Sprintf("%s/stories/%d", c.baseURL, id), nil, &env); err != nil {
		return nil, err
	}
	if env.Data.Count < 1 {
		return nil, &NotFoundError{Resource: fmt.Sprintf("story %d", id)}
	}

	r := env.Data.Results[0]
	story := &Story{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		AttributionHTML: env.AttributionHTML,
	}
	for _, it := range r.Creators.Items {
		story.Creators = append(story.Creators, Credit{Name: it.Name, Role: it.Role})
	}
	for _, it := range r.Series.Items {
		story.Series = append(story.Series, it.Name)
	}
	for _, it := range r.Events.Items {
		story.Events = append(story.Events, it.Name)
	}
	for _, it := range r.Characters.Items {
		story.CharacterURLs = append(story.CharacterURLs, it.ResourceURI)
	}
	return story, nil
}
