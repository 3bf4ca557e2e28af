// Package zpltext implements the minimal hierarchical text format used for
// the outage agent's state file (§6):
//
//	root
//	    alerts
//	        0 = "<asset-name>"
//	        1 = "<asset-name>"
//
// This is not a general-purpose config dialect — it is a fixed two-level
// tree with integer leaf keys and quoted string values, one array. None of
// the pack's config-file libraries (cvaroqui/ini's section/key model,
// yaml.v3's generic node tree, BurntSushi/toml's table model) buys
// anything over a small purpose-built reader/writer for a shape this
// narrow; see DESIGN.md.
package zpltext

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const indentUnit = "    "

// WriteAlerts writes the state file with a single "alerts" section
// holding names at consecutive integer indexes starting at 0. Order of
// names in the written file follows the given slice; load order is
// immaterial (§4.3).
func WriteAlerts(path string, names []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create state file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "root")
	fmt.Fprintln(w, indentUnit+"alerts")
	for i, name := range names {
		fmt.Fprintf(w, "%s%d = %q\n", indentUnit+indentUnit, i, name)
	}
	return w.Flush()
}

// ReadAlerts reads the state file and returns the set of names found under
// root/alerts. It is an error for the file to be absent, unreadable, or to
// lack an alerts section (§4.3, §7): the caller logs and proceeds with an
// empty table.
func ReadAlerts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open state file")
	}
	defer f.Close()

	var (
		names     []string
		inAlerts  bool
		sawAlerts bool
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			continue
		}
		depth := leadingIndentDepth(line)
		content := strings.TrimSpace(line)

		switch {
		case depth == 0:
			inAlerts = false
		case depth == 1 && content == "alerts":
			inAlerts = true
			sawAlerts = true
		case depth == 2 && inAlerts:
			if _, value, ok := parseLeaf(content); ok {
				names = append(names, value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read state file")
	}
	if !sawAlerts {
		return nil, errors.New("state file has no alerts section")
	}
	return names, nil
}

func leadingIndentDepth(line string) int {
	n := 0
	for strings.HasPrefix(line, indentUnit) {
		line = line[len(indentUnit):]
		n++
	}
	return n
}

// parseLeaf parses a "<index> = \"<value>\"" line, returning the index,
// the unquoted value, and whether parsing succeeded.
func parseLeaf(content string) (int, string, bool) {
	parts := strings.SplitN(content, "=", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, "", false
	}
	value := strings.TrimSpace(parts[1])
	unquoted, err := strconv.Unquote(value)
	if err != nil {
		// tolerate an unquoted value: state files are hand-editable.
		return idx, value, true
	}
	return idx, unquoted, true
}
