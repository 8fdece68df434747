package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// defaultPromptMax is used when the max chapters answer is not a number.
const defaultPromptMax = 5

type answers struct {
	URL      string
	Max      int
	Headless bool
}

// ask collects the run parameters interactively.
func ask(askHeadless bool) (*answers, error) {
	urlPrompt := promptui.Prompt{
		Label: "Novel URL",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("URL is required")
			}
			return nil
		},
	}
	u, err := urlPrompt.Run()
	if err != nil {
		return nil, err
	}

	maxPrompt := promptui.Prompt{
		Label:   "Max chapters to download (0 for all)",
		Default: "0",
	}
	m, err := maxPrompt.Run()
	if err != nil {
		return nil, err
	}

	a := &answers{URL: strings.TrimSpace(u), Max: parseMax(m)}

	if askHeadless {
		headlessPrompt := promptui.Prompt{
			Label:     "Run headless",
			IsConfirm: true,
		}
		// A "no" answer comes back as promptui.ErrAbort.
		_, err := headlessPrompt.Run()
		switch {
		case err == nil:
			a.Headless = true
		case errors.Is(err, promptui.ErrAbort):
		default:
			return nil, err
		}
	}

	return a, nil
}

// parseMax turns the max chapters answer into a count. Unparsable input
// falls back to defaultPromptMax; negative numbers mean all.
func parseMax(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultPromptMax
	}
	if n < 0 {
		return 0
	}
	return n
}
