package dot

import "strings"

const cspace = " \t\n\v\f\r"

// formatColnames lays out a "colnames (a b c)" field as a nested table with
// one column name per row. Labels without a value list are returned as is.
func formatColnames(label string) string {
	if label == "colnames "+EmptyMarker {
		return label
	}
	open := strings.IndexByte(label, '(')
	if open < 0 {
		return label
	}

	var b strings.Builder
	b.WriteString("    \n<table border=\"0\" cellspacing=\"0\"> \n")
	b.WriteString("      <tr>\n")
	b.WriteString("        <td>" + label[:open+1] + "</td>\n")
	b.WriteString("        <td></td>\n")
	b.WriteString("      </tr>\n")

	rest := strings.TrimLeft(label[open+1:], cspace)
	for {
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			break
		}
		b.WriteString("      <tr>\n")
		b.WriteString("        <td></td>\n")
		b.WriteString("        <td align=\"left\">" + strings.TrimRight(rest[:sp], cspace) + "</td>\n")
		b.WriteString("      </tr>\n")
		rest = strings.TrimLeft(rest[sp+1:], cspace)
	}

	if rest != "" {
		b.WriteString("      <tr>\n")
		b.WriteString("        <td>" + rest + "</td>\n")
		b.WriteString("        <td></td>\n")
		b.WriteString("      </tr>\n")
	}
	b.WriteString("    </table>\n")
	return b.String()
}
