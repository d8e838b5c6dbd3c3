package dialogue

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/desiyatra/bargainer/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PromptBuilder renders generation prompts for negotiation turns. Model-backed
// Generator implementations use it to assemble their request; the core never
// parses what comes back.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder creates a PromptBuilder with the negotiation template loaded.
func NewPromptBuilder() (*PromptBuilder, error) {
	funcMap := template.FuncMap{
		"formatPrice": formatPrice,
	}

	tmpl, err := template.New("negotiation_prompt.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/negotiation_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse negotiation template: %w", err)
	}

	return &PromptBuilder{tmpl: tmpl}, nil
}

// promptData is the template input for a single turn.
type promptData struct {
	Request      Request
	Requirements string
	Transcript   string
}

// BuildPrompt renders the generation prompt for one negotiation turn.
func (pb *PromptBuilder) BuildPrompt(req Request) (string, error) {
	data := promptData{
		Request:      req,
		Requirements: Requirements(req.Vendor, req.Trip),
		Transcript:   transcript(req.History, req.LatestVendorUtterance),
	}

	var buf bytes.Buffer
	if err := pb.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render negotiation prompt: %w", err)
	}

	return buf.String(), nil
}

// Requirements returns the caller-supplied requirements text, or derives one
// from the vendor category and party size when none was given.
func Requirements(vendor model.Vendor, trip model.TripContext) string {
	if trip.Requirements != "" {
		return trip.Requirements
	}

	category := strings.ToLower(vendor.Category)
	switch {
	case strings.Contains(category, "hotel") || strings.Contains(category, "homestay"):
		return fmt.Sprintf("room for %d people", trip.PartySize)
	case strings.Contains(category, "restaurant"):
		return fmt.Sprintf("table for %d people", trip.PartySize)
	default:
		// Taxi or other transportation
		return fmt.Sprintf("trip to %s for %d people", trip.Destination, trip.PartySize)
	}
}

// transcript renders the ordered conversation history plus the vendor's
// latest line, ending on the agent's open turn. Callers may pass a latest
// line that was already recorded into history; it is not rendered twice.
func transcript(history []model.Utterance, latest string) string {
	var b strings.Builder
	for _, turn := range history {
		switch turn.Speaker {
		case model.SpeakerVendor:
			b.WriteString("Vendor: ")
		default:
			b.WriteString("You (Agent): ")
		}
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	if latest != "" && !endsWithVendorLine(history, latest) {
		b.WriteString("Vendor: ")
		b.WriteString(latest)
		b.WriteString("\n")
	}
	b.WriteString("You (Agent): ")
	return b.String()
}

func endsWithVendorLine(history []model.Utterance, text string) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	return last.Speaker == model.SpeakerVendor && last.Text == text
}

func formatPrice(price float64) string {
	return fmt.Sprintf("%.0f", price)
}
