package main

import (
	"fmt"
	"io"
	"strings"
)

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}

func indent(value, prefix string) string {
	lines := strings.Split(strings.TrimRight(value, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func printLinks(out io.Writer, label string, links []string) {
	if len(links) == 0 {
		return
	}
	fmt.Fprintf(out, "  %s:\n", label)
	for _, link := range links {
		fmt.Fprintf(out, "    - %s\n", link)
	}
}
