package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/schemasnap/schemasnap/pkg/snapshot"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// BrowseModel - Interactive snapshot inspection
// =============================================================================

// browseEntry is one selectable row: an entity and the type it belongs to.
type browseEntry struct {
	Type   snapshot.TypeTag
	Entity *snapshot.Entity
}

// BrowseModel is the bubbletea model for snapshot browsing. The list view
// shows every entity grouped by type; selecting one opens a detail view
// with its attributes.
type BrowseModel struct {
	Source  snapshot.Source
	Entries []browseEntry
	Cursor  int
	Height  int
	Offset  int

	// showDetail switches between the list and the detail view.
	showDetail bool
}

// NewBrowseModel creates a browse model from a snapshot. Entities are
// listed in type order, then name order, matching the rendered document.
func NewBrowseModel(snap *snapshot.Snapshot) BrowseModel {
	types := snap.IncludedTypes()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var entries []browseEntry
	for _, t := range types {
		members := snap.EntitiesOf(t)
		sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		for _, e := range members {
			entries = append(entries, browseEntry{Type: t, Entity: e})
		}
	}

	return BrowseModel{
		Source:  snap.Source,
		Entries: entries,
		Height:  15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.showDetail {
				m.showDetail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if !m.showDetail && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if !m.showDetail && m.Cursor < len(m.Entries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if !m.showDetail && len(m.Entries) > 0 {
				m.showDetail = true
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) View() string {
	if m.showDetail {
		return m.detailView()
	}
	return m.listView()
}

func (m BrowseModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Snapshot of " + m.Source.URL))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	if len(m.Entries) == 0 {
		b.WriteString(listDimStyle.Render("  (no entities)"))
		b.WriteString("\n")
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Entries) {
		end = len(m.Entries)
	}

	for i := m.Offset; i < end; i++ {
		entry := m.Entries[i]

		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		line := fmt.Sprintf("%s%s %s", cursor, style.Render(entry.Entity.Name),
			listDimStyle.Render(string(entry.Type)))
		if g := entry.Entity.Group; g != nil {
			line += listDimStyle.Render(" · " + g.String())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d/%d", m.Cursor+1, len(m.Entries))))
	b.WriteString("\n")
	return b.String()
}

func (m BrowseModel) detailView() string {
	entry := m.Entries[m.Cursor]
	e := entry.Entity

	var b strings.Builder
	b.WriteString(StyleTitle.Render(e.Name))
	b.WriteString(listDimStyle.Render("  " + string(entry.Type)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	if g := e.Group; g != nil {
		b.WriteString("  " + listDimStyle.Render("group") + "  " + listNormalStyle.Render(g.String()))
		b.WriteString("\n")
	}

	for _, attr := range e.AttributeNames() {
		v := e.Attribute(attr)
		raw := v.Raw()
		if raw == "" {
			continue
		}
		b.WriteString("  " + listDimStyle.Render(attr) + "  " + listNormalStyle.Render(raw))
		b.WriteString("\n")
	}
	return b.String()
}
