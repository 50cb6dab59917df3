package messaging

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
)

// RenderedMessage is a delivery ready to send.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer renders deliveries as HTML with a plain text alternative.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a renderer with the default email template.
func NewRenderer() *Renderer {
	return &Renderer{tmpl: template.Must(template.New("email").Parse(emailHTMLTemplate))}
}

type categoryView struct {
	Name   string
	Skills string
}

type templateData struct {
	Title      string
	Band       string
	Percentage string
	Message    string
	Matched    []categoryView
	Missing    []string
}

// Render produces the subject, text and HTML bodies.
func (r *Renderer) Render(d model.Delivery) (*RenderedMessage, error) {
	data := templateData{
		Title:      d.Posting.Title,
		Band:       d.Band,
		Percentage: scoring.FormatPercent(d.Record.MatchPercentage),
		Message:    d.Record.Message,
		Matched:    categories(d.Grouped),
		Missing:    d.Record.MissingSkills,
	}
	if data.Title == "" {
		data.Title = d.Record.PostingID
	}

	var html bytes.Buffer
	if err := r.tmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return &RenderedMessage{
		Subject: fmt.Sprintf("New match: %s (%s%%)", data.Title, data.Percentage),
		Text:    renderPlainText(data),
		HTML:    html.String(),
	}, nil
}

func renderPlainText(data templateData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", data.Title)
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&sb, "%s match: %s%%\n\n", data.Band, data.Percentage)

	if len(data.Matched) > 0 {
		sb.WriteString("MATCHED SKILLS\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, c := range data.Matched {
			fmt.Fprintf(&sb, "• %s: %s\n", c.Name, c.Skills)
		}
		sb.WriteString("\n")
	}
	if len(data.Missing) > 0 {
		sb.WriteString("SKILLS TO DEVELOP\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, s := range data.Missing {
			fmt.Fprintf(&sb, "• %s\n", s)
		}
	}
	return sb.String()
}

func categories(grouped map[string][]string) []categoryView {
	out := make([]categoryView, 0, len(grouped))
	for _, cat := range skills.Categories {
		if names := grouped[string(cat)]; len(names) > 0 {
			out = append(out, categoryView{Name: string(cat), Skills: strings.Join(names, ", ")})
		}
	}
	return out
}
