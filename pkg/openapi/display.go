package openapi

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5B47E0")).
			Padding(0, 2)

	kindStyles = map[Kind]lipgloss.Style{
		KindString:  badge("#61AFEF"),
		KindInteger: badge("#98C379"),
		KindNumber:  badge("#98C379"),
		KindBoolean: badge("#E5C07B"),
		KindArray:   badge("#C678DD"),
		KindObject:  badge("#56B6C2"),
		KindUnknown: badge("#E06C75"),
	}

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B")).
			Bold(true)

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ABB2BF"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")).
			MarginTop(1)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98C379"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75")).
			Bold(true)

	codeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2C323C")).
			Foreground(lipgloss.Color("#ABB2BF")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B47E0")).
			Padding(1).
			MarginTop(1).
			MarginBottom(1)
)

func badge(bg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(bg)).
		Padding(0, 1)
}

type Displayer struct{}

func NewDisplayer() *Displayer {
	return &Displayer{}
}

// RenderIndex lists the document's paths and definitions.
func (d *Displayer) RenderIndex(doc *Document) string {
	var output strings.Builder

	if doc.Title != "" {
		title := fmt.Sprintf(" %s ", doc.Title)
		if doc.Version != "" {
			title += fmt.Sprintf("v%s ", doc.Version)
		}
		output.WriteString(titleStyle.Render(title))
		output.WriteString("\n\n")
	}
	if doc.BasePath != "" {
		output.WriteString(summaryStyle.Render("Base path: "))
		output.WriteString(pathStyle.Render(doc.BasePath))
		output.WriteString("\n")
	}

	if len(doc.Paths) > 0 {
		output.WriteString(sectionStyle.Render("Endpoints"))
		output.WriteString("\n\n")
		for _, path := range doc.Paths {
			output.WriteString("  ")
			output.WriteString(pathStyle.Render(path))
			output.WriteString("\n")
		}
	}

	output.WriteString(sectionStyle.Render("Definitions"))
	output.WriteString("\n\n")
	invalid := doc.Definitions.Invalid()
	for _, title := range doc.Definitions.Titles() {
		output.WriteString("  ")
		if err, ok := invalid[title]; ok {
			output.WriteString(errorStyle.Render(title))
			output.WriteString("  ")
			output.WriteString(summaryStyle.Render(err.Reason))
			output.WriteString("\n")
			continue
		}
		prop, _ := doc.Definitions.Definition(title)
		output.WriteString(renderKind(prop))
		output.WriteString(" ")
		output.WriteString(fieldStyle.Render(title))
		output.WriteString("\n")
	}

	if len(doc.Warnings) > 0 {
		output.WriteString(sectionStyle.Render("Warnings"))
		output.WriteString("\n\n")
		for _, w := range doc.Warnings {
			output.WriteString("  ")
			output.WriteString(summaryStyle.Render(w.String()))
			output.WriteString("\n")
		}
	}

	return output.String()
}

// RenderDefinition draws a definition tree inside a box.
func (d *Displayer) RenderDefinition(title string, prop *Property) string {
	var output strings.Builder
	output.WriteString(titleStyle.Render(" " + title + " "))
	output.WriteString(" ")
	output.WriteString(renderKind(prop))
	output.WriteString("\n")
	d.renderChildren(&output, prop, 1)
	return boxStyle.Render(strings.TrimRight(output.String(), "\n"))
}

func (d *Displayer) renderChildren(output *strings.Builder, prop *Property, indent int) {
	switch prop.Kind {
	case KindObject:
		for _, name := range prop.Properties.Names() {
			child := prop.Properties[name]
			d.renderField(output, name, child, indent)
		}
	case KindArray:
		d.renderField(output, "items", prop.Items, indent)
	}
}

func (d *Displayer) renderField(output *strings.Builder, name string, prop *Property, indent int) {
	output.WriteString(strings.Repeat("  ", indent))
	output.WriteString(fieldStyle.Render(name))
	output.WriteString(" ")
	output.WriteString(renderKind(prop))
	if prop.Format != "" {
		output.WriteString(" ")
		output.WriteString(codeStyle.Render(fmt.Sprintf("(%s)", prop.Format)))
	}
	if len(prop.Enum) > 0 {
		values := make([]string, len(prop.Enum))
		for i, v := range prop.Enum {
			values[i] = fmt.Sprint(v)
		}
		output.WriteString(" ")
		output.WriteString(summaryStyle.Render("one of " + strings.Join(values, ", ")))
	}
	output.WriteString("\n")
	d.renderChildren(output, prop, indent+1)
}

func renderKind(prop *Property) string {
	style, ok := kindStyles[prop.Kind]
	if !ok {
		style = kindStyles[KindUnknown]
	}
	return style.Render(prop.TypeName())
}
