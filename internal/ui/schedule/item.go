package schedule

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/status"
	"github.com/pestguard/fieldops/internal/theme"
)

// ApptItem wraps a model.Appointment so it can be used in a bubbles/list.
type ApptItem struct {
	Appt model.Appointment
}

// FilterValue returns the string used for fuzzy filtering.
func (i ApptItem) FilterValue() string { return i.Appt.Service.Name }

// Title returns the service name for the list.
func (i ApptItem) Title() string { return i.Appt.Service.Name }

// Description returns a short summary line for the list.
func (i ApptItem) Description() string {
	d := status.AppointmentDisplay(i.Appt.Status.Code)
	parts := []string{
		d.Label,
		i.Appt.ScheduledDate + " " + i.Appt.ScheduledTime,
	}
	if i.Appt.Address != nil && i.Appt.Address.City != "" {
		parts = append(parts, i.Appt.Address.City)
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering appointment rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single appointment line: status icon, service name,
// schedule, city.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(ApptItem)
	if !ok {
		return
	}

	disp := status.AppointmentDisplay(it.Appt.Status.Code)
	badge := theme.BadgeStyle(disp.Badge).Render(disp.Icon + " " + disp.Label)

	city := ""
	if it.Appt.Address != nil {
		city = it.Appt.Address.City
	}

	line := fmt.Sprintf(
		"%s %s  %s %s  %s",
		badge,
		it.Appt.Service.Name,
		it.Appt.ScheduledDate,
		it.Appt.ScheduledTime,
		lipgloss.NewStyle().Foreground(theme.ColorGray).Render(city),
	)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}
