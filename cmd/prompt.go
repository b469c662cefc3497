package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

const (
	PromptBack = "back"
	PromptExit = "exit"
)

var errExit = errors.New("exit requested")

// ask returns value when set, otherwise prompts for it.
func ask(label, value string, mask bool) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}

	p := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("%s is required", strings.ToLower(label))
			}
			return nil
		},
	}
	if mask {
		p.Mask = '*'
	}

	return p.Run()
}

func askInt(label string, value, lo, hi int) (int, error) {
	if value >= lo && value <= hi {
		return value, nil
	}

	p := promptui.Prompt{
		Label: fmt.Sprintf("%s (%d-%d)", label, lo, hi),
		Validate: func(input string) error {
			n, err := strconv.Atoi(strings.TrimSpace(input))
			if err != nil || n < lo || n > hi {
				return fmt.Errorf("enter a number between %d and %d", lo, hi)
			}
			return nil
		},
	}

	raw, err := p.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

func choose(label string, items []string) (string, error) {
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}
	_, selected, err := p.Run()
	return selected, err
}

func confirm(label string) bool {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := p.Run()
	return err == nil
}
