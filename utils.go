package memberdraw

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidateRange validates draw range parameters
func ValidateRange(min, max int) error {
	if min < 0 || min > max {
		return newError(ErrInvalidRange, "ValidateRange", fmt.Sprintf("min=%d, max=%d", min, max))
	}
	if max-min+1 > MaxPoolSize {
		return newError(ErrInvalidRange, "ValidateRange",
			fmt.Sprintf("range of %d numbers exceeds the limit of %d", max-min+1, MaxPoolSize))
	}
	return nil
}

// digits returns the number of decimal digits in a non-negative n
func digits(n int) int {
	d := 1
	for n >= 10 {
		n /= 10
		d++
	}
	return d
}

// padWidth returns the width every number in a range ending at max is padded to
func padWidth(max, minWidth int) int {
	return maxInt(minWidth, digits(max))
}

// formatNumber zero-pads n to width
func formatNumber(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// parseWholeNumber parses one trimmed decimal integer
func parseWholeNumber(operation, text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, newError(ErrInvalidInput, operation, "nothing was entered")
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, newError(ErrInvalidInput, operation, fmt.Sprintf("%q is not a whole number", trimmed)).WithCause(err)
	}
	return n, nil
}

// ParseMemberNumber parses the operator-entered highest member number
func ParseMemberNumber(text string) (int, error) {
	n, err := parseWholeNumber("ParseMemberNumber", text)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, newError(ErrInvalidInput, "ParseMemberNumber", fmt.Sprintf("%d is not a positive number", n))
	}
	if n > MaxPoolSize {
		return 0, newError(ErrInvalidInput, "ParseMemberNumber", fmt.Sprintf("%d is larger than %d", n, MaxPoolSize))
	}
	return n, nil
}

// ParseBlacklist parses a comma-separated list of excluded numbers, blank entries are ignored
func ParseBlacklist(text string) ([]int, error) {
	var numbers []int
	for i, field := range strings.Split(text, ",") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		n, err := parseWholeNumber("ParseBlacklist", field)
		if err != nil {
			return nil, err.(*RaffleError).WithMetadata("entry", i+1)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// MergeBlacklists returns the sorted union of the given lists
func MergeBlacklists(lists ...[]int) []int {
	seen := make(map[int]struct{})
	var merged []int
	for _, list := range lists {
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			merged = append(merged, n)
		}
	}
	slices.Sort(merged)
	return merged
}
