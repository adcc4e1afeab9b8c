package tui

import (
	"fmt"
	"strings"

	"github.com/ocrbot/backend/internal/models"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(TextTitle))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(TextSubtitle))
	b.WriteString("\n")

	if m.State.Mode == models.ModeDemo {
		b.WriteString(InfoStyle.Render("demo mode: results are simulated"))
		b.WriteString("\n\n")
	}

	// File selection
	if !m.hasFile() {
		prompt := TextPathPrompt + m.Input + "█\n" + InfoStyle.Render(TextFileTypes)
		b.WriteString(DropStyle.Render(prompt))
	} else {
		file := m.State.File
		b.WriteString(fmt.Sprintf("📄 %s  %s", file.Name, InfoStyle.Render(formatSize(file.Size))))
	}
	b.WriteString("\n")

	// Errors
	if m.State.Error != "" {
		b.WriteString(ErrorStyle.Render("⚠ " + m.State.Error))
		b.WriteString("\n")
	}
	if m.Err != nil {
		b.WriteString(ErrorStyle.Render("⚠ " + m.Err.Error()))
		b.WriteString("\n")
	}

	// Action
	if m.hasFile() {
		b.WriteString("\n")
		if m.State.IsProcessing {
			b.WriteString(StatusStyle.Render("⏳ " + m.State.ActionLabel))
		} else {
			b.WriteString(HighlightStyle.Render(m.State.ActionLabel))
		}
		b.WriteString("\n")
	}

	// Result
	if m.State.ResultVisible {
		header := TextResult
		if m.State.Copied {
			header += "  " + SuccessStyle.Render(TextCopied)
		}
		b.WriteString("\n")
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(ResultStyle.Render(m.State.ExtractedText))
		b.WriteString("\n")
	}

	// Logs
	if len(m.Logs) > 0 {
		b.WriteString("\n")
		for _, line := range m.Logs {
			b.WriteString(InfoStyle.Render("   " + line))
			b.WriteString("\n")
		}
	}

	// Help text
	b.WriteString("\n")
	switch {
	case m.State.IsProcessing:
		b.WriteString(InfoStyle.Render(TextFooterRunning))
	case m.hasFile():
		b.WriteString(InfoStyle.Render(TextFooterFile))
	default:
		b.WriteString(InfoStyle.Render(TextFooterNoFile))
	}
	b.WriteString("\n")

	return b.String()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
