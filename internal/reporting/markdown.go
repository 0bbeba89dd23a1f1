package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Mint Run %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Run
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", time.UnixMilli(r.StartedAt).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Cluster | %s |\n", r.Cluster))
	sb.WriteString(fmt.Sprintf("| Authority | `%s` |\n", r.Authority))
	sb.WriteString(fmt.Sprintf("| Asset Directory | %s |\n", escapeCell(r.AssetDir)))
	sb.WriteString(fmt.Sprintf("| Events | %d |\n", r.Events))
	sb.WriteString("\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Stage | Tokens |\n")
	sb.WriteString("|-------|--------|\n")
	sb.WriteString(fmt.Sprintf("| MINTED | %d |\n", r.Summary.Minted))
	sb.WriteString(fmt.Sprintf("| LINKED | %d |\n", r.Summary.Linked))
	sb.WriteString(fmt.Sprintf("| VERIFIED | %d |\n", r.Summary.Verified))
	sb.WriteString(fmt.Sprintf("| FAILED | %d |\n", r.Summary.Failed))
	sb.WriteString("\n")
	if r.Summary.Failed > 0 {
		sb.WriteString("**The run stopped at a failure.** Tokens after it were never attempted.\n\n")
	}

	// Tokens
	sb.WriteString("## Tokens\n\n")
	if len(r.Tokens) == 0 {
		sb.WriteString("No token events recorded.\n\n")
		return sb.String()
	}
	sb.WriteString("| Role | Index | Stage | Mint | Signature | Error |\n")
	sb.WriteString("|------|-------|-------|------|-----------|-------|\n")
	for _, t := range r.Tokens {
		mint := "-"
		if t.Mint != "" {
			mint = fmt.Sprintf("[%s](%s)", t.Mint, t.ExplorerURL)
			if t.ExplorerURL == "" {
				mint = "`" + t.Mint + "`"
			}
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			t.Role, indexLabel(t.Index), t.Stage, mint, dashIfEmpty(t.Signature), escapeCell(t.Error)))
	}
	sb.WriteString("\n")

	return sb.String()
}

func indexLabel(i int) string {
	if i < 0 {
		return "-"
	}
	return fmt.Sprint(i)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return "`" + s + "`"
}

// escapeCell keeps pipes and newlines from breaking the table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
