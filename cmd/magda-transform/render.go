package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/music"
	"github.com/Conceptual-Machines/magda-transforms-go/transform"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
)

// renderNotes shows the clip before and after a run side by side
func renderNotes(before, after []models.NoteEvent, ts models.TimeSignature) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderNoteTable(fmt.Sprintf("Before (%d)", len(before)), before, ts),
		"  ",
		renderNoteTable(fmt.Sprintf("After (%d)", len(after)), after, ts),
	)
}

func renderNoteTable(title string, notes []models.NoteEvent, ts models.TimeSignature) string {
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		pos := music.MusicalBeatsToBarBeat(ts.BeatsToMusical(n.StartTime), ts.Numerator)
		rows = append(rows, []string{
			music.MIDIToNoteName(n.Pitch),
			pos.String(),
			formatNumber(ts.BeatsToMusical(n.Duration)),
			formatNumber(n.Velocity),
			formatNumber(n.ProbabilityOrDefault()),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Note", "Pos", "Len", "Vel", "Prob").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), t.String())
}

func renderAudio(props models.AudioProperties, result models.AudioResult) string {
	gain, shift := "unchanged", "unchanged"
	if result.Gain != nil {
		gain = formatNumber(*result.Gain) + " dB"
	}
	if result.PitchShift != nil {
		shift = formatNumber(*result.PitchShift) + " st"
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Property", "Before", "After").
		Row("gain", formatNumber(props.Gain)+" dB", gain).
		Row("pitchShift", formatNumber(props.PitchShift)+" st", shift).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func renderReport(report *transform.Report) string {
	var sb strings.Builder
	sb.WriteString(okStyle.Render(fmt.Sprintf("✅ %d assignment(s): %d applied, %d skipped, %d removed",
		report.Assignments, report.Applied, report.Skipped, report.Removed)))
	for _, w := range report.Warnings {
		sb.WriteString("\n")
		sb.WriteString(warningStyle.Render("⚠️  " + w))
	}
	return sb.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
