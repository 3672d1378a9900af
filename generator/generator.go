// Package generator orchestrates the end-to-end page build: fetch the
// story, resolve its characters, render the HTML file and record the
// generation.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"marvelpage/marvel"
	"marvelpage/render"
)

// API is the slice of the Marvel client the generator needs.
type API interface {
	ResolveCharacterID(ctx context.Context, name string) (int, error)
	StoryIDs(ctx context.Context, characterID int) ([]int, error)
	Story(ctx context.Context, id int) (*marvel.Story, error)
	CharacterByURL(ctx context.Context, url string) (*marvel.Character, error)
}

// Record describes a completed generation for the history log.
type Record struct {
	StoryID       int
	Title         string
	CharacterName string
	OutputPath    string
}

// History persists generation records.
type History interface {
	Add(rec Record) error
}

// Generator builds story pages. API failures propagate unchanged; a
// history write failure is logged but does not fail the generation,
// since the page itself was already produced.
type Generator struct {
	api        API
	history    History
	outputPath string
	pick       func(n int) int
}

// New creates a Generator writing to outputPath.
func New(api API, history History, outputPath string) *Generator {
	return &Generator{
		api:        api,
		history:    history,
		outputPath: outputPath,
		pick:       rand.Intn,
	}
}

// FromStoryID generates the page for a specific story.
func (g *Generator) FromStoryID(ctx context.Context, storyID int) error {
	return g.generate(ctx, storyID, "")
}

// FromCharacterName resolves the character, lists all of their stories
// and generates the page for one picked at random. Slow for popular
// characters: the full story listing is paginated sequentially.
func (g *Generator) FromCharacterName(ctx context.Context, name string) error {
	characterID, err := g.api.ResolveCharacterID(ctx, name)
	if err != nil {
		return err
	}
	slog.Info("character resolved", "name", name, "id", characterID)

	storyIDs, err := g.api.StoryIDs(ctx, characterID)
	if err != nil {
		return err
	}
	storyID := storyIDs[g.pick(len(storyIDs))]
	slog.Info("story picked", "story_id", storyID, "candidates", len(storyIDs))

	return g.generate(ctx, storyID, name)
}

func (g *Generator) generate(ctx context.Context, storyID int, characterName string) error {
	story, err := g.api.Story(ctx, storyID)
	if err != nil {
		return err
	}

	var characters []*marvel.Character
	for _, charURL := range story.CharacterURLs {
		char, err := g.api.CharacterByURL(ctx, charURL)
		if err != nil {
			return err
		}
		characters = append(characters, char)
	}
	slog.Info("story fetched", "story_id", storyID, "title", story.Title, "characters", len(characters))

	f, err := os.Create(g.outputPath)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", g.outputPath, err)
	}
	if err := render.Render(f, render.BuildPage(story, characters)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file %s: %w", g.outputPath, err)
	}

	if err := g.history.Add(Record{
		StoryID:       storyID,
		Title:         story.Title,
		CharacterName: characterName,
		OutputPath:    g.outputPath,
	}); err != nil {
		slog.Error("failed to record generation", "story_id", storyID, "error", err)
	}

	slog.Info("page generated", "story_id", storyID, "output", g.outputPath)
	return nil
}
