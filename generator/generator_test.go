package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marvelpage/marvel"
)

type fakeAPI struct {
	characterID    int
	resolveErr     error
	storyIDs       []int
	storyIDsErr    error
	stories        map[int]*marvel.Story
	storyErr       error
	characters     map[string]*marvel.Character
	characterErr   error
	storyIDsCalled int
}

func (f *fakeAPI) ResolveCharacterID(ctx context.Context, name string) (int, error) {
	if f.resolveErr != nil {
		return 0, f.resolveErr
	}
	return f.characterID, nil
}

func (f *fakeAPI) StoryIDs(ctx context.Context, characterID int) ([]int, error) {
	f.storyIDsCalled++
	if f.storyIDsErr != nil {
		return nil, f.storyIDsErr
	}
	return f.storyIDs, nil
}

func (f *fakeAPI) Story(ctx context.Context, id int) (*marvel.Story, error) {
	if f.storyErr != nil {
		return nil, f.storyErr
	}
	story, ok := f.stories[id]
	if !ok {
		return nil, &marvel.NotFoundError{Resource: "story"}
	}
	return story, nil
}

func (f *fakeAPI) CharacterByURL(ctx context.Context, url string) (*marvel.Character, error) {
	if f.characterErr != nil {
		return nil, f.characterErr
	}
	return f.characters[url], nil
}

type fakeHistory struct {
	records []Record
	err     error
}

func (f *fakeHistory) Add(rec Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

// storyFixture mirrors the shape of API story 108992: two creators, one
// series, no events.
func storyFixture() *marvel.Story {
	return &marvel.Story{
		ID:              108992,
		Title:           "Amazing Tale",
		Description:     "A tale.",
		AttributionHTML: "<a>Data provided by Marvel</a>",
		Creators: []marvel.Credit{
			{Name: "Stan Lee", Role: "writer"},
			{Name: "Jack Kirby", Role: "penciller"},
		},
		Series:        []string{"Amazing Series"},
		CharacterURLs: []string{"http://gateway.example/characters/1"},
	}
}

func newTestGenerator(t *testing.T, api API, history History) (*Generator, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.html")
	return New(api, history, out), out
}

func TestFromStoryID(t *testing.T) {
	api := &fakeAPI{
		stories: map[int]*marvel.Story{108992: storyFixture()},
		characters: map[string]*marvel.Character{
			"http://gateway.example/characters/1": {ID: 1, Name: "Iron Man", ThumbnailURL: "http://i.example/im.jpg"},
		},
	}
	history := &fakeHistory{}
	gen, out := newTestGenerator(t, api, history)

	if err := gen.FromStoryID(context.Background(), 108992); err != nil {
		t.Fatalf("FromStoryID: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	html := string(data)
	for _, want := range []string{
		"Stan Lee (writer), Jack Kirby (penciller)",
		"<h3>Iron Man</h3>",
		"<a>Data provided by Marvel</a>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if len(history.records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history.records))
	}
	rec := history.records[0]
	if rec.StoryID != 108992 || rec.Title != "Amazing Tale" || rec.OutputPath != out {
		t.Errorf("record = %+v", rec)
	}
	if rec.CharacterName != "" {
		t.Errorf("expected empty character name for by-ID mode, got %q", rec.CharacterName)
	}
}

func TestFromCharacterName_PicksFromListing(t *testing.T) {
	api := &fakeAPI{
		characterID: 42,
		storyIDs:    []int{100, 108992, 300},
		stories:     map[int]*marvel.Story{108992: storyFixture()},
	}
	history := &fakeHistory{}
	gen, _ := newTestGenerator(t, api, history)
	gen.pick = func(n int) int {
		if n != 3 {
			t.Errorf("pick bound = %d, want 3", n)
		}
		return 1
	}

	if err := gen.FromCharacterName(context.Background(), "Iron Man"); err != nil {
		t.Fatalf("FromCharacterName: %v", err)
	}

	if api.storyIDsCalled != 1 {
		t.Errorf("StoryIDs called %d times, want 1", api.storyIDsCalled)
	}
	if len(history.records) != 1 || history.records[0].StoryID != 108992 {
		t.Fatalf("history = %+v", history.records)
	}
	if history.records[0].CharacterName != "Iron Man" {
		t.Errorf("character name = %q, want %q", history.records[0].CharacterName, "Iron Man")
	}
}

func TestFromCharacterName_ResolveFailurePropagates(t *testing.T) {
	wantErr := &marvel.NotFoundError{Resource: `character "Nobody"`}
	api := &fakeAPI{resolveErr: wantErr}
	gen, out := newTestGenerator(t, api, &fakeHistory{})

	err := gen.FromCharacterName(context.Background(), "Nobody")
	var notFound *marvel.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *marvel.NotFoundError, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("expected no output file after failed resolution")
	}
}

func TestFromStoryID_CharacterFetchFailurePropagates(t *testing.T) {
	wantErr := &marvel.CommunicationError{Status: 500, URL: "http://gateway.example/characters/1"}
	api := &fakeAPI{
		stories:      map[int]*marvel.Story{108992: storyFixture()},
		characterErr: wantErr,
	}
	history := &fakeHistory{}
	gen, out := newTestGenerator(t, api, history)

	err := gen.FromStoryID(context.Background(), 108992)
	var commErr *marvel.CommunicationError
	if !errors.As(err, &commErr) {
		t.Fatalf("expected *marvel.CommunicationError, got %v", err)
	}
	if len(history.records) != 0 {
		t.Error("expected no history record after failed generation")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("expected no output file after failed character fetch")
	}
}

func TestGenerate_HistoryFailureDoesNotFailGeneration(t *testing.T) {
	api := &fakeAPI{stories: map[int]*marvel.Story{108992: storyFixture()}}
	api.stories[108992].CharacterURLs = nil
	gen, out := newTestGenerator(t, api, &fakeHistory{err: errors.New("disk full")})

	if err := gen.FromStoryID(context.Background(), 108992); err != nil {
		t.Fatalf("expected success despite history failure, got %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected output file to exist: %v", err)
	}
}

func TestFromStoryID_EndToEndFixture(t *testing.T) {
	// Story with 2 creators, 1 series, 0 events: the authors line joins
	// both creators with no trailing separator and no events row appears.
	api := &fakeAPI{stories: map[int]*marvel.Story{108992: storyFixture()}}
	api.stories[108992].CharacterURLs = nil
	gen, out := newTestGenerator(t, api, &fakeHistory{})

	if err := gen.FromStoryID(context.Background(), 108992); err != nil {
		t.Fatalf("FromStoryID: %v", err)
	}

	data, _ := os.ReadFile(out)
	html := string(data)
	if !strings.Contains(html, "Stan Lee (writer), Jack Kirby (penciller)") {
		t.Error("expected joined authors line")
	}
	if !strings.Contains(html, "Jack Kirby (penciller)</li>") {
		t.Error("unexpected trailing separator after authors")
	}
	if strings.Contains(html, "Events") {
		t.Error("expected no events row for a story without events")
	}
}
