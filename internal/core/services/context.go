package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// Context assembly limits.
const (
	// MaxContextLength bounds the assembled context in characters,
	// headers and separators included.
	MaxContextLength = 16000

	// ContextSeparator joins context blocks.
	ContextSeparator = "\n\n---\n\n"
)

// BuildContext renders retrieved items as "[doc #<id>] <text>" blocks in
// rank order until the next block would exceed MaxContextLength. It
// returns the context and the sorted, unique email ids of the included
// blocks. An oversized first block yields an empty context.
func BuildContext(items []domain.RetrievedItem) (string, []int64) {
	var (
		sb    strings.Builder
		used  int
		seen  = make(map[int64]struct{})
		ids   = []int64{}
		first = true
	)

	for _, item := range items {
		block := contextBlock(item)
		cost := utf8.RuneCountInString(block)
		if !first {
			cost += utf8.RuneCountInString(ContextSeparator)
		}
		if used+cost > MaxContextLength {
			break
		}

		if !first {
			sb.WriteString(ContextSeparator)
		}
		sb.WriteString(block)
		used += cost
		first = false

		if item.EmailID != nil {
			if _, dup := seen[*item.EmailID]; !dup {
				seen[*item.EmailID] = struct{}{}
				ids = append(ids, *item.EmailID)
			}
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return sb.String(), ids
}

func contextBlock(item domain.RetrievedItem) string {
	if item.EmailID == nil {
		return "[doc #?] " + item.Text
	}
	return fmt.Sprintf("[doc #%d] %s", *item.EmailID, item.Text)
}

// fillPrompt puts arg in place of the first %s in a user-editable prompt.
// Nothing else in the template is interpreted, so a literal % survives.
func fillPrompt(template, arg string) string {
	return strings.Replace(template, "%s", arg, 1)
}
