package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/kintree/pkg/canvas"
	"github.com/matzehuels/kintree/pkg/generation"
	"github.com/matzehuels/kintree/pkg/layout"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconLocked  = "locked"
	iconOpen    = "unlocked"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Tree Display
// =============================================================================

// statsLine summarises a view: people, relationships, mode and whether the
// last layout came from cache.
func statsLine(v canvas.View, relationships int, cached bool) string {
	parts := []string{
		fmt.Sprintf("%d people", len(v.PersonPositions())),
		fmt.Sprintf("%d relationships", relationships),
	}
	mode := styleComputed.Render(iconOpen)
	if v.Locked {
		mode = StyleWarning.Render(iconLocked)
	}
	parts = append(parts, mode)
	if v.LayoutMode == layout.ModeAutomatic {
		parts = append(parts, styleComputed.Render("computed layout"))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached layout"))
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

// tierStyle colours text with the generation tier colour.
func tierStyle(level int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(generation.TierColor(level)))
}

// renderPeopleTable renders one row per person, ordered by generation.
// Selected marks the row of the selected person.
func renderPeopleTable(rows []personRow, selected string) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		mark := "  "
		if r.ID == selected {
			mark = "▸ "
		}
		data[i] = []string{mark, fmt.Sprint(r.Level), r.Name, r.Age, r.Status, r.Spouse, r.Parents, shortID(r.ID)}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Gen", "Name", "Age", "Status", "Spouse", "Parents", "ID").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			r := rows[row]
			base := lipgloss.NewStyle().Padding(0, 1)
			switch col {
			case 1, 2:
				base = base.Inherit(tierStyle(r.Level))
			case 4:
				base = base.Foreground(lipgloss.Color(r.StatusColor))
			case 7:
				base = base.Foreground(colorDim)
			}
			if r.ID == selected {
				base = base.Bold(true)
			}
			return base
		})
	return t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
