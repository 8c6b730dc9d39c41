package tui

import (
	"fmt"
	"strings"

	"github.com/slok/inferctl/internal/model"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.launcherPhase() {
	case model.LaunchPhaseIdle:
		b.WriteString(m.renderServices())
	case model.LaunchPhaseModalOpen:
		b.WriteString(modalStyle.Render(m.renderForm()))
	case model.LaunchPhaseLaunching:
		b.WriteString(modalStyle.Render(fmt.Sprintf("%s Launching %s service...", m.spinner.View(), m.state.Task())))
	case model.LaunchPhaseFailed:
		b.WriteString(alertStyle.Render(m.renderFailure()))
	case model.LaunchPhaseSuccess:
		b.WriteString(modalStyle.Render(m.renderSuccess()))
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString("\n" + warningStyle.Render(m.notice) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Refresh failed: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	profile := "no profile"
	if p, ok := m.state.Profile(); ok {
		profile = fmt.Sprintf("%s (%s)", p.Name, p.Type)
	}

	av, ms := m.state.Availability()
	models := av.String()
	if av == model.ModelsReady {
		models = fmt.Sprintf("%d ready", len(ms))
	}

	return titleStyle.Render("inferctl") + " " +
		subtitleStyle.Render(fmt.Sprintf("profile: %s  task: %s  models: %s", profile, m.state.Task(), models))
}

func (m Model) renderServices() string {
	svcs := m.state.Services().Services()
	if len(svcs) == 0 {
		return dimStyle.Render("No services running.")
	}

	selID := ""
	if sel, ok := m.state.Services().Selected(); ok {
		selID = sel.ID
	}

	var b strings.Builder
	for _, s := range svcs {
		line := fmt.Sprintf("%-28s %-22s %s  %s", s.Name, s.Model, statusStyle(string(s.Status)).Render(fmt.Sprintf("%-8s", s.Status)), s.Endpoint)
		if s.ID == selID {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderForm() string {
	var b strings.Builder

	title := "Launch service"
	if def, ok := m.state.Launcher().Task(); ok {
		title = "Launch " + def.Title
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	errs := m.state.Launcher().Errors()
	for i, f := range m.form {
		cursor := "  "
		if i == m.focus {
			cursor = "> "
		}
		b.WriteString(cursor + labelStyle.Render(f.field.Label) + f.input.View() + "\n")
		if r, ok := errs[f.field.Name]; ok && r != nil && !r.OK {
			b.WriteString("  " + errorStyle.Render(r.Message) + "\n")
		}
	}

	if _, ms := m.state.Availability(); len(ms) > 0 {
		ids := make([]string, 0, len(ms))
		for _, md := range ms {
			ids = append(ids, md.ID)
		}
		b.WriteString("\n" + dimStyle.Render("models: "+strings.Join(ids, ", ")))
	}

	return b.String()
}

func (m Model) renderFailure() string {
	st := m.state.Launcher().State()
	msg := "unknown error"
	if st.LaunchError != nil {
		msg = st.LaunchError.Error()
	}
	return errorStyle.Render("Launch failed") + "\n" + msg
}

func (m Model) renderSuccess() string {
	h, ok := m.state.Launcher().Handle()
	if !ok {
		return successStyle.Render("Service launched")
	}
	return successStyle.Render("Service "+h.Name+" launched") + "\n" + "Endpoint: " + h.Endpoint
}

func (m Model) renderHelp() string {
	switch m.launcherPhase() {
	case model.LaunchPhaseModalOpen:
		return helpStyle.Render("tab/shift+tab move  enter launch  esc cancel")
	case model.LaunchPhaseLaunching:
		return helpStyle.Render("esc close (the launch keeps running on the backend)")
	case model.LaunchPhaseFailed:
		return helpStyle.Render("enter/esc dismiss")
	case model.LaunchPhaseSuccess:
		return helpStyle.Render("c copy endpoint  enter close")
	}

	launch := "n launch"
	if !m.state.CanOpenLauncher() {
		launch = dimStyle.Strikethrough(true).Render(launch)
	}
	return helpStyle.Render("↑/↓ select  ") + launch + helpStyle.Render("  t task  x stop  r refresh  q quit")
}
