package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
	"github.com/matzehuels/pgnode2graph/pkg/graph"
	"github.com/matzehuels/pgnode2graph/pkg/nodetree"
)

// treeCommand creates the tree command, which prints a dump without
// running Graphviz.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		asJSON   bool
		output   string
		maxDepth int
	)

	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Print a node tree dump as an indented tree",
		Example: `  pgnode2graph tree query.txt
  pgnode2graph tree --max-depth 3 plan.txt
  pgnode2graph tree --json query.txt | jq '.nodes | length'
  pgnode2graph tree -o query.json query.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := c.parseFile(args[0])
			if err != nil {
				return err
			}
			if output != "" {
				if err := graph.WriteGraphFile(tree, output); err != nil {
					return errors.Wrap(errors.ErrCodeIO, err, "could not write %s", output)
				}
				printSuccess(c.Out, "Wrote %s", output)
				return nil
			}
			if asJSON {
				return graph.WriteGraph(tree, c.Out)
			}
			fmt.Fprint(c.Out, asciiTree(tree, maxDepth).String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the tree as JSON to `FILE`")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "stop descending below this depth (0 = unlimited)")

	return cmd
}

// parseFile reads one dump file.
func (c *CLI) parseFile(path string) (*nodetree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "could not open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "could not open %s", path)
	}
	defer f.Close()

	tree, err := nodetree.Parse(f, nodetree.WithLogger(c.Logger.With("source", path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// asciiTree converts a parsed tree into a treeprint tree. Nodes deeper than
// maxDepth are summarized; maxDepth <= 0 prints everything.
func asciiTree(t *nodetree.Tree, maxDepth int) treeprint.Tree {
	root := treeprint.NewWithRoot(describe(t.Node(t.Root())))
	addChildren(t, root, t.Node(t.Root()), 1, maxDepth)
	return root
}

func addChildren(t *nodetree.Tree, branch treeprint.Tree, n *nodetree.Node, depth, maxDepth int) {
	if maxDepth > 0 && depth >= maxDepth && !n.IsLeaf() {
		branch.AddNode(fmt.Sprintf("… %d more", countBelow(t, n)))
		return
	}
	for _, id := range n.Children {
		child := t.Node(id)
		if child.IsLeaf() {
			branch.AddNode(describe(child))
			continue
		}
		addChildren(t, branch.AddBranch(describe(child)), child, depth+1, maxDepth)
	}
}

// describe renders a node the way it appears in the dump.
func describe(n *nodetree.Node) string {
	switch n.Kind {
	case nodetree.Structural:
		return "{" + n.Label + "}"
	case nodetree.List:
		return ":" + n.Label + " (…)"
	default:
		return ":" + n.Label
	}
}

// countBelow returns the number of descendants of n.
func countBelow(t *nodetree.Tree, n *nodetree.Node) int {
	count := 0
	stack := append([]nodetree.NodeID(nil), n.Children...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, t.Node(id).Children...)
	}
	return count
}
