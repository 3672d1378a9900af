// Package render turns fetched story and character data into a static
// HTML page.
package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"marvelpage/marvel"
)

//go:embed story.html.tmpl
var storyTemplate string

var tmpl = template.Must(template.New("story").Parse(storyTemplate))

// Page is the view model for the story template. Authors, Series and
// Events are pre-joined display strings; Attribution is the API's
// credit markup, rendered unescaped as the terms of use require.
type Page struct {
	Title       string
	Description string
	Authors     string
	Series      string
	Events      string
	Attribution template.HTML
	Characters  []CharacterView
}

// CharacterView holds the character fields shown on the page.
type CharacterView struct {
	Name        string
	Description string
	ImageURL    string
}

// BuildPage maps a story and its characters to the template view model.
// Creator credits are joined as "Name (Role), Name (Role)"; series and
// event names as "Name, Name". Empty lists produce empty strings, never
// a dangling separator.
func BuildPage(story *marvel.Story, characters []*marvel.Character) Page {
	page := Page{
		Title:       story.Title,
		Description: story.Description,
		Authors:     joinCredits(story.Creators),
		Series:      strings.Join(story.Series, ", "),
		Events:      strings.Join(story.Events, ", "),
		Attribution: template.HTML(story.AttributionHTML),
	}
	for _, c := range characters {
		page.Characters = append(page.Characters, CharacterView{
			Name:        c.Name,
			Description: c.Description,
			ImageURL:    c.ThumbnailURL,
		})
	}
	return page
}

func joinCredits(credits []marvel.Credit) string {
	parts := make([]string, len(credits))
	for i, c := range credits {
		parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.Role)
	}
	return strings.Join(parts, ", ")
}

// Render writes the HTML page to w.
func Render(w io.Writer, page Page) error {
	if err := tmpl.Execute(w, page); err != nil {
		return fmt.Errorf("render: executing story template: %w", err)
	}
	return nil
}
