package render

import (
	"casaideal/internal/compare"
	"casaideal/internal/core"
	"casaideal/internal/pipeline"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Output formats accepted by the CLI
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Formats lists the supported output formats
var Formats = []string{FormatTerminal, FormatJSON, FormatMarkdown, FormatHTML}

// CardWidth is the width of a terminal listing card
const CardWidth = 72

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(CardWidth)

	alternativeCardStyle = cardStyle.BorderForeground(lipgloss.Color("214"))

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	priceStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Padding(0, 1)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
)

// Card renders one listing as a bordered terminal card
func Card(p core.Property) string {
	var b strings.Builder

	if p.IsAlternative() {
		b.WriteString(badgeStyle.Render("Alternativa"))
		b.WriteString("\n")
	}
	b.WriteString(titleStyle.Render(p.Title))
	b.WriteString("\n")
	if p.Address != "" {
		b.WriteString(mutedStyle.Render(p.Address))
		b.WriteString("\n")
	}
	b.WriteString(priceStyle.Render(core.FormatBRL(p.Price)))
	b.WriteString("  ")
	b.WriteString(compare.Specs(p))
	b.WriteString("\n")

	if p.IsAlternative() {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Por que é uma alternativa: "))
		b.WriteString(p.SuggestionReason)
		b.WriteString("\n")
	}
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(p.Description)
		b.WriteString("\n")
	}
	if p.PersonalizedPitch != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Para Você: "))
		b.WriteString(p.PersonalizedPitch)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Vibrações do Bairro: "))
	b.WriteString(p.NeighborhoodVibe)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d fotos · id %s", len(p.ImageURLs), p.ID)))

	style := cardStyle
	if p.IsAlternative() {
		style = alternativeCardStyle
	}
	return style.Render(b.String())
}

// Cards renders the main listings followed by the alternatives
func Cards(listings, similar []core.Property) string {
	if len(listings) == 0 && len(similar) == 0 {
		return mutedStyle.Render("Nenhum imóvel encontrado para esses critérios.") + "\n"
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Imóveis recomendados"))
	b.WriteString("\n")
	for _, p := range listings {
		b.WriteString(Card(p))
		b.WriteString("\n")
	}

	if len(similar) > 0 {
		b.WriteString(headingStyle.Render("Você também pode gostar"))
		b.WriteString("\n")
		for _, p := range similar {
			b.WriteString(Card(p))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ComparisonTable renders a comparison as a terminal table, one column per property
func ComparisonTable(c *compare.Comparison) string {
	headers := make([]string, 0, len(c.Properties)+1)
	headers = append(headers, "")
	for _, p := range c.Properties {
		headers = append(headers, p.Title)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1).Width(28)
			if row == table.HeaderRow || col == 0 {
				return style.Bold(true)
			}
			return style
		})

	for _, r := range c.Rows {
		t.Row(append([]string{r.Label}, r.Values...)...)
	}

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	for _, line := range highlightLines(c) {
		b.WriteString(mutedStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders a search result as a markdown document
func Markdown(result *pipeline.SearchResult) string {
	var b strings.Builder

	title := "Seus imóveis ideais"
	if name := strings.TrimSpace(result.Preferences.Name); name != "" {
		title = fmt.Sprintf("Imóveis ideais para %s", name)
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	b.WriteString(preferencesSummary(result.Preferences))
	b.WriteString("\n")

	if len(result.Listings) == 0 {
		b.WriteString("Nenhum imóvel encontrado para esses critérios.\n")
	}
	for i, p := range result.Listings {
		writeListingMarkdown(&b, i+1, p)
	}

	if len(result.Similar) > 0 {
		b.WriteString("## Você também pode gostar\n\n")
		for i, p := range result.Similar {
			writeListingMarkdown(&b, len(result.Listings)+i+1, p)
		}
	}
	return b.String()
}

// ComparisonMarkdown renders a comparison as a markdown table
func ComparisonMarkdown(c *compare.Comparison) string {
	var b strings.Builder

	b.WriteString("| |")
	for _, p := range c.Properties {
		b.WriteString(" " + escapeCell(p.Title) + " |")
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(c.Properties)))
	b.WriteString("\n")

	for _, r := range c.Rows {
		b.WriteString("| **" + r.Label + "** |")
		for _, v := range r.Values {
			b.WriteString(" " + escapeCell(v) + " |")
		}
		b.WriteString("\n")
	}

	if lines := highlightLines(c); len(lines) > 0 {
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString("- " + line + "\n")
		}
	}
	return b.String()
}

// HTML renders a search result as an HTML fragment
func HTML(result *pipeline.SearchResult) string {
	return MarkdownToHTML(Markdown(result))
}

// MarkdownToHTML converts markdown text to HTML. Links open in a new tab.
func MarkdownToHTML(text string) string {
	if text == "" {
		return ""
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})

	return string(markdown.ToHTML([]byte(text), mdParser, renderer))
}

// JSON renders v as indented JSON
func JSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return append(data, '\n'), nil
}

// Result renders a search result in the named format
func Result(result *pipeline.SearchResult, format string) (string, error) {
	switch format {
	case FormatTerminal, "":
		return Cards(result.Listings, result.Similar), nil
	case FormatJSON:
		data, err := JSON(result)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatMarkdown:
		return Markdown(result), nil
	case FormatHTML:
		return HTML(result), nil
	default:
		return "", fmt.Errorf("unknown format %q (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}

// Extension returns the file extension used when saving a format
func Extension(format string) string {
	switch format {
	case FormatJSON:
		return ".json"
	case FormatHTML:
		return ".html"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// WriteToFile writes content to filename inside outputDir, creating the directory
func WriteToFile(content, outputDir, filename string) (string, error) {
	if outputDir == "" {
		outputDir = "results"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write result file %s: %w", filePath, err)
	}

	return filePath, nil
}

func writeListingMarkdown(b *strings.Builder, n int, p core.Property) {
	b.WriteString(fmt.Sprintf("## %d. %s\n\n", n, p.Title))
	if cover := p.CoverImage(); cover != "" && !strings.HasPrefix(cover, "data:") {
		b.WriteString(fmt.Sprintf("![%s](%s)\n\n", p.Title, cover))
	}
	if p.Address != "" {
		b.WriteString(fmt.Sprintf("*%s*\n\n", p.Address))
	}
	b.WriteString(fmt.Sprintf("**%s** · %s\n\n", core.FormatBRL(p.Price), compare.Specs(p)))
	if p.IsAlternative() {
		b.WriteString(fmt.Sprintf("> **Por que é uma alternativa:** %s\n\n", p.SuggestionReason))
	}
	if p.Description != "" {
		b.WriteString(p.Description + "\n\n")
	}
	if p.PersonalizedPitch != "" {
		b.WriteString(fmt.Sprintf("**Para Você:** %s\n\n", p.PersonalizedPitch))
	}
	b.WriteString(fmt.Sprintf("**Vibrações do Bairro:** %s\n\n", p.NeighborhoodVibe))
	b.WriteString("---\n\n")
}

func preferencesSummary(prefs core.Preferences) string {
	var b strings.Builder
	if prefs.Intention != "" {
		b.WriteString(fmt.Sprintf("- **Intenção:** %s\n", prefs.Intention))
	}
	if t := prefs.FullPropertyType(); t != "" {
		b.WriteString(fmt.Sprintf("- **Tipo:** %s\n", t))
	}
	if prefs.Location != "" {
		b.WriteString(fmt.Sprintf("- **Localização:** %s\n", prefs.Location))
	}
	b.WriteString(fmt.Sprintf("- **Orçamento:** %s a %s\n", core.FormatBRL(prefs.Budget.Min), core.FormatBRL(prefs.Budget.Max)))
	b.WriteString(fmt.Sprintf("- **Quartos/Banheiros:** %d/%d\n", prefs.Bedrooms, prefs.Bathrooms))
	if p := prefs.AllPriorities(); p != "" {
		b.WriteString(fmt.Sprintf("- **Prioridades:** %s\n", p))
	}
	if e := prefs.AllExtras(); e != "" {
		b.WriteString(fmt.Sprintf("- **Extras:** %s\n", e))
	}
	return b.String()
}

func highlightLines(c *compare.Comparison) []string {
	titles := make(map[string]string, len(c.Properties))
	for _, p := range c.Properties {
		titles[p.ID] = p.Title
	}

	var lines []string
	if id := c.Highlights.CheapestID; id != "" {
		lines = append(lines, "Menor preço: "+titles[id])
	}
	if id := c.Highlights.LargestID; id != "" {
		lines = append(lines, "Maior área: "+titles[id])
	}
	if id := c.Highlights.BestValueID; id != "" {
		lines = append(lines, "Melhor preço/m²: "+titles[id])
	}
	return lines
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
