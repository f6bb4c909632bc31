package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
	"github.com/matzehuels/pgnode2graph/pkg/nodetree"
)

// browseCommand creates the browse command, an interactive tree viewer.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse FILE",
		Short: "Explore a node tree dump interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) {
				return errors.New(errors.ErrCodeUnsupported, "browse needs a terminal; use the tree command instead")
			}
			tree, err := c.parseFile(args[0])
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(newBrowseModel(args[0], tree), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// Browser styles
var (
	browseSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	browseDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// browseModel - Interactive tree browser
// =============================================================================

// browseRow is one visible line of the browser.
type browseRow struct {
	id    nodetree.NodeID
	depth int
}

// browseModel is the bubbletea model of the browse command. Only the root
// is expanded initially.
type browseModel struct {
	title    string
	tree     *nodetree.Tree
	expanded map[nodetree.NodeID]bool
	rows     []browseRow
	cursor   int
	offset   int
	height   int
}

func newBrowseModel(title string, t *nodetree.Tree) browseModel {
	m := browseModel{
		title:    title,
		tree:     t,
		expanded: map[nodetree.NodeID]bool{t.Root(): true},
		height:   20,
	}
	m.rows = m.visibleRows()
	return m
}

// visibleRows lists the nodes reachable through expanded nodes, depth first.
func (m browseModel) visibleRows() []browseRow {
	var rows []browseRow
	stack := []browseRow{{id: m.tree.Root()}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rows = append(rows, r)
		if !m.expanded[r.id] {
			continue
		}
		children := m.tree.Node(r.id).Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, browseRow{id: children[i], depth: r.depth + 1})
		}
	}
	return rows
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "right", "l":
			m.setExpanded(true)
		case "left", "h":
			m.collapseOrParent()
		case "enter":
			id := m.rows[m.cursor].id
			m.setExpanded(!m.expanded[id])
		case "E":
			m.tree.Walk(func(id nodetree.NodeID, n *nodetree.Node) bool {
				if !n.IsLeaf() {
					m.expanded[id] = true
				}
				return true
			})
			m.rows = m.visibleRows()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
	}
	m.scroll()
	return m, nil
}

func (m *browseModel) setExpanded(open bool) {
	id := m.rows[m.cursor].id
	if m.tree.Node(id).IsLeaf() {
		return
	}
	if open {
		m.expanded[id] = true
	} else {
		delete(m.expanded, id)
	}
	m.rows = m.visibleRows()
}

// collapseOrParent collapses the selected node, or moves to its parent
// when it is already collapsed.
func (m *browseModel) collapseOrParent() {
	row := m.rows[m.cursor]
	if m.expanded[row.id] {
		m.setExpanded(false)
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < row.depth {
			m.cursor = i
			return
		}
	}
}

func (m *browseModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(browseDimStyle.Render("↑/↓ navigate  →/← expand/collapse  ⏎ toggle  E expand all  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		n := m.tree.Node(r.id)

		marker := "  "
		if !n.IsLeaf() {
			marker = "▸ "
			if m.expanded[r.id] {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", r.depth) + marker + describe(n)
		if i == m.cursor {
			b.WriteString(browseSelectedStyle.Render(line))
		} else {
			b.WriteString(browseNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.rows) > 0 {
		n := m.tree.Node(m.rows[m.cursor].id)
		b.WriteString("\n")
		b.WriteString(browseDimStyle.Render(fmt.Sprintf("%s · table node_%d · slot %d · %d children",
			n.Kind, n.Ordinal, n.Slot, len(n.Children))))
		b.WriteString("\n")
	}
	return b.String()
}
