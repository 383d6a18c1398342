package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/stacsmith/stacsmith/pkg/stac"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "browse <href>",
		Short: "Browse a catalog tree interactively",
		Long: `Browse a catalog tree interactively.

Opens the catalog or collection at <href> in a terminal browser. Levels
are fetched lazily as you descend, so browsing a large remote catalog
only downloads what you look at.

Keys: up/down move, enter descends into a container or inspects an item,
backspace goes up a level, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runBrowse loads the root container and hands control to the TUI.
func (c *CLI) runBrowse(ctx context.Context, hrefStr string, noCache bool) error {
	reader, _, closer, err := c.newReader(ctx, noCache)
	if err != nil {
		return err
	}
	defer closer()

	obj, err := stac.Load(ctx, hrefStr, reader)
	if err != nil {
		return err
	}
	container, ok := stac.AsContainer(obj)
	if !ok {
		return fmt.Errorf("browse %s: %w: %s", hrefStr, stac.ErrWrongObjectType, obj.Kind())
	}

	p := tea.NewProgram(newBrowseModel(ctx, container))
	_, err = p.Run()
	return err
}

// browseEntry is one row of the browser: a child container or an item.
type browseEntry struct {
	obj    stac.Object
	isItem bool
}

// entriesMsg carries one level of the tree, loaded asynchronously.
type entriesMsg struct {
	rows []browseEntry
	err  error
}

// browseModel is the bubbletea model for the tree browser. The path stack
// holds the containers from the root down to the one whose entries are
// displayed.
type browseModel struct {
	ctx     context.Context
	path    []stac.Container
	rows    []browseEntry
	detail  *stac.Item
	cursor  int
	offset  int
	height  int
	loading bool
	err     error
}

// newBrowseModel creates a browser rooted at container.
func newBrowseModel(ctx context.Context, container stac.Container) browseModel {
	return browseModel{
		ctx:     ctx,
		path:    []stac.Container{container},
		height:  15,
		loading: true,
	}
}

func (m browseModel) Init() tea.Cmd {
	return loadEntries(m.ctx, m.path[0])
}

// loadEntries resolves one level of the tree off the update loop.
func loadEntries(ctx context.Context, cur stac.Container) tea.Cmd {
	return func() tea.Msg {
		children, err := cur.Children(ctx)
		if err != nil {
			return entriesMsg{err: err}
		}
		items, err := cur.Items(ctx)
		if err != nil {
			return entriesMsg{err: err}
		}
		loggerFromContext(ctx).Debug("loaded level", "container", cur.ID(), "children", len(children), "items", len(items))
		rows := make([]browseEntry, 0, len(children)+len(items))
		for _, child := range children {
			rows = append(rows, browseEntry{obj: child})
		}
		for _, it := range items {
			rows = append(rows, browseEntry{obj: it, isItem: true})
		}
		return entriesMsg{rows: rows}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesMsg:
		m.loading = false
		m.rows = msg.rows
		m.err = msg.err
		m.cursor = 0
		m.offset = 0
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
		return m, nil

	case tea.KeyMsg:
		if m.detail != nil {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			default:
				m.detail = nil
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", "right", "l":
			if m.loading || m.cursor >= len(m.rows) {
				return m, nil
			}
			row := m.rows[m.cursor]
			if row.isItem {
				m.detail = row.obj.(*stac.Item)
				return m, nil
			}
			child := row.obj.(stac.Container)
			m.path = append(m.path, child)
			m.loading = true
			return m, loadEntries(m.ctx, child)
		case "backspace", "left", "h":
			if len(m.path) > 1 {
				m.path = m.path[:len(m.path)-1]
				m.loading = true
				return m, loadEntries(m.ctx, m.path[len(m.path)-1])
			}
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	if m.detail != nil {
		return m.itemView()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.breadcrumb()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  ⌫ back  q quit"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
		b.WriteString("\n")
	case m.loading:
		b.WriteString(listDimStyle.Render("  loading..."))
		b.WriteString("\n")
	case len(m.rows) == 0:
		b.WriteString(listDimStyle.Render("  empty"))
		b.WriteString("\n")
	default:
		end := m.offset + m.height
		if end > len(m.rows) {
			end = len(m.rows)
		}
		for i := m.offset; i < end; i++ {
			row := m.rows[i]
			cursor := "  "
			style := listNormalStyle
			if i == m.cursor {
				cursor = "▸ "
				style = listSelectedStyle
			}
			line := cursor + style.Render(row.obj.ID())
			if !row.isItem {
				line += listDimStyle.Render(" " + kindWord(row.obj.Kind()) + "/")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))
		b.WriteString("\n")
	}
	return b.String()
}

// itemView renders the metadata panel for an inspected item.
func (m browseModel) itemView() string {
	it := m.detail
	var b strings.Builder
	b.WriteString(StyleTitle.Render(it.ID()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("any key back  q quit"))
	b.WriteString("\n\n")

	row := func(key, value string) {
		b.WriteString("  " + listDimStyle.Render(fmt.Sprintf("%-12s", key)) + listNormalStyle.Render(value))
		b.WriteString("\n")
	}
	if t, ok := it.Datetime(); ok {
		row("datetime", t.Format(time.RFC3339))
	}
	if it.CollectionID != "" {
		row("collection", it.CollectionID)
	}
	if title, ok := it.Properties["title"].(string); ok && title != "" {
		row("title", title)
	}
	if len(it.Assets) > 0 {
		keys := make([]string, 0, len(it.Assets))
		for k := range it.Assets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		row("assets", strings.Join(keys, ", "))
	}
	if href := it.SelfHref(); href != "" {
		row("href", href)
	}
	return b.String()
}

// breadcrumb joins the ids on the path stack.
func (m browseModel) breadcrumb() string {
	parts := make([]string, len(m.path))
	for i, c := range m.path {
		parts[i] = c.ID()
	}
	return strings.Join(parts, " / ")
}
