package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pgnode2graph/pkg/nodetree"
)

// WriteGraphFile writes a tree to a JSON file.
func WriteGraphFile(t *nodetree.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGraph(t, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteGraph writes a tree as JSON to w.
func WriteGraph(t *nodetree.Tree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromTree(t)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
