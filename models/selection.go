package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Truncate keeps the first max items. max <= 0 keeps everything.
func Truncate[T any](items []T, max int) []T {
	if max <= 0 || max >= len(items) {
		return items
	}
	return items[:max]
}

// Select narrows items by a 1-based inclusive range ("5-12") or a comma
// separated list of positions ("1,3,5"). Range wins when both are set.
// Empty rng and list return items unchanged.
func Select[T any](items []T, rng, list string) ([]T, error) {
	if rng != "" {
		return selectRange(items, rng)
	}
	if list != "" {
		return selectList(items, list)
	}
	return items, nil
}

func selectRange[T any](items []T, rng string) ([]T, error) {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil, NewScrapeError(ErrCodeInvalidInput, fmt.Sprintf("range %q: want start-end", rng), nil)
	}

	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return nil, NewScrapeError(ErrCodeInvalidInput, fmt.Sprintf("range %q: not numeric", rng), nil)
	}
	if start <= 0 || start > end {
		return nil, NewScrapeError(ErrCodeInvalidInput, fmt.Sprintf("range %q: bad bounds", rng), nil)
	}
	if start > len(items) {
		return []T{}, nil
	}
	if end > len(items) {
		end = len(items)
	}

	return items[start-1 : end], nil
}

func selectList[T any](items []T, list string) ([]T, error) {
	out := []T{}
	for p := range strings.SplitSeq(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idx, err := strconv.Atoi(p)
		if err != nil {
			return nil, NewScrapeError(ErrCodeInvalidInput, fmt.Sprintf("list entry %q: not numeric", p), err)
		}
		if idx <= 0 || idx > len(items) {
			continue
		}
		out = append(out, items[idx-1])
	}

	return out, nil
}
