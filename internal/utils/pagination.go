// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"fmt"
	"strconv"
)

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty it returns def. Unlike a silent fallback, a value
// that cannot be parsed is reported as an error so callers can reject it.
//
// Example:
//
//	n, _ := utils.AtoiDefault("42", 0) // 42
//	n, _ = utils.AtoiDefault("", 10)   // 10
//	_, err := utils.AtoiDefault("x", 5) // err != nil
func AtoiDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// PageParams parses 1-based page and pageSize query values. Empty values fall
// back to page 1 and defSize. Values that are not integers, or are below 1,
// yield an error naming the offending parameter.
func PageParams(page, pageSize string, defSize int) (int, int, error) {
	p, err := AtoiDefault(page, 1)
	if err != nil || p < 1 {
		return 0, 0, fmt.Errorf("page must be a positive integer")
	}
	ps, err := AtoiDefault(pageSize, defSize)
	if err != nil || ps < 1 {
		return 0, 0, fmt.Errorf("pageSize must be a positive integer")
	}
	return p, ps, nil
}
