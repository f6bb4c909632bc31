package dot

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pgnode2graph/pkg/colormap"
	"github.com/matzehuels/pgnode2graph/pkg/nodetree"
)

const targetListDump = "{QUERY :commandType 1 :targetList ({TARGETENTRY :expr <> :resno 1})}"

func mustParse(t *testing.T, s string) *nodetree.Tree {
	t.Helper()
	tree, err := nodetree.ParseString(s)
	require.NoError(t, err)
	return tree
}

func TestMarshalColor(t *testing.T) {
	want := `digraph PGNodeGraph {
node [shape=none];
rankdir=LR;
size="100000,100000";
node_0 [
  label=<<table border="0" cellspacing="0" color="skyblue">
    <tr>
      <td port="f0" border="1" bgcolor="skyblue">
       <B><font>QUERY</font></B>
      </td>
    </tr>
    <tr><td port="f1" border="1">commandType 1</td></tr>
    <tr><td port="f2" border="1">targetList</td></tr>
  </table>>
];
node_3 [
  label=<<table border="0" cellspacing="0" color="sienna">
    <tr>
      <td port="f0" border="1" bgcolor="sienna">
       <B><font>TARGETENTRY</font></B>
      </td>
    </tr>
    <tr><td port="f1" border="1">expr --</td></tr>
    <tr><td port="f2" border="1">resno 1</td></tr>
  </table>>
];
node_0:f2 -> node_3:f0 [color=blue];
}
`
	got, err := Marshal(mustParse(t, targetListDump), Options{Color: true})
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

func TestMarshalSkipEmpty(t *testing.T) {
	want := `digraph PGNodeGraph {
node [shape=none];
rankdir=LR;
size="100000,100000";
node_0 [
  label=<<table border="0" cellspacing="0">
    <tr>
      <td port="f0" border="1">
       <B><font>QUERY</font></B>
      </td>
    </tr>
    <tr><td port="f1" border="1">commandType 1</td></tr>
    <tr><td port="f2" border="1">targetList</td></tr>
  </table>>
];
node_3 [
  label=<<table border="0" cellspacing="0">
    <tr>
      <td port="f0" border="1">
       <B><font>TARGETENTRY</font></B>
      </td>
    </tr>
    <tr><td port="f2" border="1">resno 1</td></tr>
  </table>>
];
node_0:f2 -> node_3:f0;
}
`
	got, err := Marshal(mustParse(t, targetListDump), Options{SkipEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

func TestMarshalSuppressedField(t *testing.T) {
	got, err := Marshal(mustParse(t, "{A :f {B :x 1} :g {C}}"), Options{Color: true})
	require.NoError(t, err)
	out := string(got)

	assert.Contains(t, out, "node_0 [\n")
	assert.Contains(t, out, "node_2 [\n")
	assert.Contains(t, out, "node_5 [\n", "a node without fields gets a header-only table")
	assert.Contains(t, out, "<B><font>C</font></B>")
	assert.Contains(t, out, `<tr><td port="f1" border="1">f</td></tr>`)
	assert.Contains(t, out, "node_0:f1 -> node_2:f0 [color=green];\n")
	assert.Contains(t, out, "node_0:f2 -> node_5:f0 [color=green];\n")
}

func TestMarshalNestedNodeWithoutFields(t *testing.T) {
	want := `digraph PGNodeGraph {
node [shape=none];
rankdir=LR;
size="100000,100000";
node_0 [
  label=<<table border="0" cellspacing="0">
    <tr>
      <td port="f0" border="1">
       <B><font>A</font></B>
      </td>
    </tr>
    <tr><td port="f1" border="1">f</td></tr>
  </table>>
];
node_2 [
  label=<<table border="0" cellspacing="0">
    <tr>
      <td port="f0" border="1">
       <B><font>B</font></B>
      </td>
    </tr>
  </table>>
];
node_0:f1 -> node_2:f0;
}
`
	got, err := Marshal(mustParse(t, "{A :f {B}}"), Options{})
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
	assert.NotContains(t, string(got), "node_1", "the field gets no node of its own")
}

func TestMarshalEdgeOrder(t *testing.T) {
	tree := mustParse(t, "{A :l ({B :x 1} {C :y {D :z 2}}) :m {E :w 3}}")
	got, err := Marshal(tree, Options{})
	require.NoError(t, err)

	var edges []string
	for _, line := range strings.Split(string(got), "\n") {
		if strings.Contains(line, " -> ") {
			edges = append(edges, line)
		}
	}
	assert.Equal(t, []string{
		"node_0:f1 -> node_2:f0;",
		"node_2:f0 -> node_4:f0;",
		"node_0:f2 -> node_9:f0;",
		"node_4:f1 -> node_6:f0;",
	}, edges)
}

func TestMarshalFontColor(t *testing.T) {
	colors := colormap.Map{"A": {Border: "black", Background: "gold", Font: "white"}}
	got, err := Marshal(mustParse(t, "{A :x 1}"), Options{Color: true, Colors: colors, GraphName: "G"})
	require.NoError(t, err)
	out := string(got)

	assert.True(t, strings.HasPrefix(out, "digraph G {\n"))
	assert.Contains(t, out, `<table border="0" cellspacing="0" color="black">`)
	assert.Contains(t, out, `<td port="f0" border="1" bgcolor="gold">`)
	assert.Contains(t, out, `<B><font color="white">A</font></B>`)
}

func TestMarshalColorsIgnoredWithoutColor(t *testing.T) {
	colors := colormap.Map{"A": {Background: "gold"}}
	got, err := Marshal(mustParse(t, "{A :x 1}"), Options{Colors: colors})
	require.NoError(t, err)
	assert.NotContains(t, string(got), "gold")
}

func TestMarshalDump(t *testing.T) {
	data, err := os.ReadFile("../nodetree/testdata/query.txt")
	require.NoError(t, err)
	tree, err := nodetree.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	first, err := Marshal(tree, Options{Color: true, SkipEmpty: true})
	require.NoError(t, err)
	second, err := Marshal(tree, Options{Color: true, SkipEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, first, second, "output must be identical across calls")

	out := string(first)
	assert.Equal(t, tree.Count(nodetree.Structural), strings.Count(out, " [\n  label=<"))
	assert.Equal(t, tree.EdgeCount(), strings.Count(out, " -> "))
	assert.Contains(t, out, `<td align="left">relname</td>`)
	assert.NotContains(t, out, "utilityStmt")
	assert.Contains(t, out, "  </table>>\n];\nnode_0:f9 -> node_10:f0 [color=blue];\n",
		"edges follow the last table, starting with the rtable list")
	assert.True(t, strings.HasSuffix(out, ";\n}\n"))
}

func TestFormatColnames(t *testing.T) {
	want := "    \n<table border=\"0\" cellspacing=\"0\"> \n" +
		"      <tr>\n" +
		"        <td>colnames (</td>\n" +
		"        <td></td>\n" +
		"      </tr>\n" +
		"      <tr>\n" +
		"        <td></td>\n" +
		"        <td align=\"left\">oid</td>\n" +
		"      </tr>\n" +
		"      <tr>\n" +
		"        <td></td>\n" +
		"        <td align=\"left\">relname</td>\n" +
		"      </tr>\n" +
		"      <tr>\n" +
		"        <td>)</td>\n" +
		"        <td></td>\n" +
		"      </tr>\n" +
		"    </table>\n"
	assert.Equal(t, want, formatColnames("colnames ( oid   relname )"))

	assert.Equal(t, "colnames --", formatColnames("colnames --"))
	assert.Equal(t, "colnames", formatColnames("colnames"))
}

func TestFormatEdge(t *testing.T) {
	e := nodetree.Edge{
		From: nodetree.Port{Ordinal: 0, Slot: 9},
		To:   nodetree.Port{Ordinal: 10, Slot: 0},
		List: true,
	}
	assert.Equal(t, "node_0:f9 -> node_10:f0;", FormatEdge(e, false))
	assert.Equal(t, "node_0:f9 -> node_10:f0 [color=blue];", FormatEdge(e, true))
	e.List = false
	assert.Equal(t, "node_0:f9 -> node_10:f0 [color=green];", FormatEdge(e, true))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteError(t *testing.T) {
	err := Write(failingWriter{}, mustParse(t, targetListDump), Options{})
	assert.EqualError(t, err, "disk full")
}
