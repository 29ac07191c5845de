package handlers

import (
	"casaideal/internal/core"
	"casaideal/internal/visits"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var optionHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

// NewOptionsCmd creates the options command, which lists the questionnaire catalogs
func NewOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the values accepted by the search flags",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printOptions(cmd.OutOrStdout())
		},
	}
}

func printOptions(w io.Writer) {
	defaults := core.DefaultPreferences()

	sections := []struct {
		title  string
		values []string
	}{
		{"Intenção (--intention)", []string{string(core.IntentionBuy), string(core.IntentionRent)}},
		{"Tipo de imóvel (--type)", core.PropertyTypeOptions},
		{"Prioridades (--priorities)", core.PriorityOptions},
		{"Extras (--extras)", core.ExtraOptions},
		{"Períodos de visita", slotNames()},
	}

	for _, section := range sections {
		fmt.Fprintln(w, optionHeadingStyle.Render(section.title))
		for _, v := range section.values {
			fmt.Fprintf(w, "  • %s\n", v)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, optionHeadingStyle.Render("Padrões"))
	fmt.Fprintf(w, "  Orçamento: %s a %s\n", core.FormatBRL(defaults.Budget.Min), core.FormatBRL(defaults.Budget.Max))
	fmt.Fprintf(w, "  Localização: %s\n", defaults.Location)
	fmt.Fprintf(w, "  Quartos/Banheiros: %d/%d\n", defaults.Bedrooms, defaults.Bathrooms)
	fmt.Fprintf(w, "  Free-text fields: %s\n", strings.Join([]string{"--other-type", "--other-priorities", "--other-extras"}, ", "))
}

func slotNames() []string {
	names := make([]string, len(visits.Slots))
	for i, slot := range visits.Slots {
		names[i] = string(slot)
	}
	return names
}
