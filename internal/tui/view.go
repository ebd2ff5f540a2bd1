package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joescharf/checkin/internal/models"
	"github.com/joescharf/checkin/internal/workflow"
)

var (
	accentColor = lipgloss.Color("63")
	subtleColor = lipgloss.Color("241")

	accentStyle = lipgloss.NewStyle().Foreground(accentColor)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	headerStyle = lipgloss.NewStyle().Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(subtleColor)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pickedStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(1, 2)
)

const barWidth = 24

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenLoading:
		body = subtleStyle.Render("Cargando…")
	case screenLogin:
		body = m.viewLogin()
	case screenBlocked:
		body = m.viewBlocked()
	case screenCapture:
		body = m.viewCapture()
	case screenSubmitting:
		body = fmt.Sprintf("%s Enviando tu reporte…", m.spinner.View())
	case screenDone:
		body = m.viewDone()
	}

	var sb strings.Builder
	sb.WriteString(body)
	if m.notice != "" {
		sb.WriteString("\n\n" + noticeStyle.Render(m.notice))
	}
	if m.err != nil {
		sb.WriteString("\n\n" + errorStyle.Render("Error: "+m.err.Error()))
	}
	return boxStyle.Render(sb.String()) + "\n"
}

func (m Model) viewLogin() string {
	return strings.Join([]string{
		titleStyle.Render(fmt.Sprintf("Bienvenido a %s Check-in", m.org)),
		subtleStyle.Render("Ingresa tu email corporativo para comenzar tu revisión."),
		"",
		m.login.View(),
		"",
		help("enter ingresar", "ctrl+c salir"),
	}, "\n")
}

func (m Model) viewBlocked() string {
	return strings.Join([]string{
		titleStyle.Render("¡Misión Cumplida!"),
		fmt.Sprintf("Ya completaste tu check-in de %s.", m.session.PeriodLabel),
		subtleStyle.Render("Gracias por mantener al equipo informado."),
		"",
		help(fmt.Sprintf("l cerrar sesión (%s)", m.identity), "q salir"),
	}, "\n")
}

func (m Model) viewCapture() string {
	s := m.session
	lines := []string{
		titleStyle.Render(m.org+" Check-in") + "  " + subtleStyle.Render("Reporte para "+s.PeriodLabel),
		subtleStyle.Render(s.Identity),
		progressBar(int(s.Step), workflow.CaptureSteps, barWidth),
		"",
	}

	switch s.Step {
	case workflow.StepCompletion:
		lines = append(lines,
			headerStyle.Render("1. Completitud del Sprint"),
			subtleStyle.Render("Considera el porcentaje de tareas finalizadas vs lo que habías estimado."),
			"",
			fmt.Sprintf("%s %3d%%", meter(s.Form.Completion, 100, barWidth), s.Form.Completion),
			"",
			help("←/→ ajustar", "enter continuar"),
		)
	case workflow.StepBugs:
		lines = append(lines,
			headerStyle.Render("2. Cantidad de Bugs / Errores"),
			subtleStyle.Render("Errores detectados en tu desarrollo este último sprint."),
			"",
			fmt.Sprintf("[-]  %s  [+]", pickedStyle.Render(fmt.Sprintf("%d", s.Form.Bugs))),
			"",
			help("-/+ ajustar", "enter siguiente", "esc atrás"),
		)
	case workflow.StepSatisfaction:
		lines = append(lines, headerStyle.Render("3. Satisfacción con el trabajo"), "")
		for _, lvl := range models.SatisfactionLevels {
			row := fmt.Sprintf("  %d  %s  %s", lvl.Level, lvl.Emoji, lvl.Label)
			if s.Form.Satisfaction == lvl.Level {
				row = pickedStyle.Render(fmt.Sprintf("› %d  %s  %s", lvl.Level, lvl.Emoji, lvl.Label))
			}
			lines = append(lines, row)
		}
		lines = append(lines, "", help("1-5 elegir", "enter siguiente", "esc atrás"))
	case workflow.StepComments:
		lines = append(lines,
			headerStyle.Render("4. ¿Algún comentario adicional?"),
			"",
			m.comments.View(),
			"",
			help("ctrl+s enviar", "esc atrás"),
		)
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewDone() string {
	s := m.session
	lines := []string{
		titleStyle.Render("¡Recibido!"),
		"Tu reporte mensual ha sido guardado exitosamente.",
	}
	if s.Insight != "" {
		lines = append(lines, "", accentStyle.Render(s.Insight))
	}
	if !s.RemoteRecorded {
		lines = append(lines, "", subtleStyle.Render("El reporte quedó guardado solo en este equipo."))
	}
	lines = append(lines, "", help("enter salir"))
	return strings.Join(lines, "\n")
}

// progressBar renders "step of total" as a filled bar.
func progressBar(step, total, width int) string {
	return fmt.Sprintf("%s %s", meter(step, total, width), subtleStyle.Render(fmt.Sprintf("Paso %d de %d", step, total)))
}

func meter(value, total, width int) string {
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	filled := 0
	if total > 0 {
		filled = width * value / total
	}
	return accentStyle.Render(strings.Repeat("█", filled)) + subtleStyle.Render(strings.Repeat("░", width-filled))
}

func help(keys ...string) string {
	return subtleStyle.Render(strings.Join(keys, " · "))
}
