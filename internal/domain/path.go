package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SegmentWidth is the number of characters each ancestor contributes to a path.
const SegmentWidth = 2

// MaxSiblings is the largest sibling number a two-character hex token can hold.
const MaxSiblings = 0xFF

// ParkingNumber is never assigned to a live task. Swaps park a task here so
// (path, number) stays unique while the other sibling takes its slot.
const ParkingNumber = 0

// ErrMalformedPath reports a path that is not a sequence of hex segments.
var ErrMalformedPath = errors.New("malformed task path")

// EncodeNumber renders a sibling number as a fixed-width upper-case hex token.
func EncodeNumber(n int) string {
	if n < 0 || n > MaxSiblings {
		panic(fmt.Sprintf("sibling number %d out of range", n))
	}
	return fmt.Sprintf("%02X", n)
}

// DecodeNumber parses a two-character token produced by EncodeNumber.
func DecodeNumber(token string) (int, error) {
	if len(token) != SegmentWidth {
		return 0, fmt.Errorf("%w: token %q", ErrMalformedPath, token)
	}
	if strings.ToUpper(token) != token {
		return 0, fmt.Errorf("%w: token %q", ErrMalformedPath, token)
	}
	n, err := strconv.ParseUint(token, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: token %q", ErrMalformedPath, token)
	}
	return int(n), nil
}

// FullPath appends the encoded number to the parent's full path.
func FullPath(parentFullPath string, number int) string {
	return parentFullPath + EncodeNumber(number)
}

// ValidatePath checks that p is made of well-formed segments.
func ValidatePath(p string) error {
	if len(p)%SegmentWidth != 0 {
		return fmt.Errorf("%w: %q has odd length", ErrMalformedPath, p)
	}
	for i := 0; i < len(p); i += SegmentWidth {
		if _, err := DecodeNumber(p[i : i+SegmentWidth]); err != nil {
			return fmt.Errorf("%w: %q", ErrMalformedPath, p)
		}
	}
	return nil
}

// Depth returns the number of segments in fullPath. Root-level tasks have depth 1.
func Depth(fullPath string) int {
	return len(fullPath) / SegmentWidth
}

// ParentPath strips the last segment off a full path.
func ParentPath(fullPath string) (string, error) {
	if err := ValidatePath(fullPath); err != nil {
		return "", err
	}
	if fullPath == "" {
		return "", fmt.Errorf("%w: empty path has no parent", ErrMalformedPath)
	}
	return fullPath[:len(fullPath)-SegmentWidth], nil
}

// LastNumber decodes the final segment of a full path.
func LastNumber(fullPath string) (int, error) {
	if len(fullPath) < SegmentWidth {
		return 0, fmt.Errorf("%w: %q", ErrMalformedPath, fullPath)
	}
	return DecodeNumber(fullPath[len(fullPath)-SegmentWidth:])
}

// Ancestors lists every ancestor full path of fullPath, shortest first, the
// path itself included last.
func Ancestors(fullPath string) ([]string, error) {
	if err := ValidatePath(fullPath); err != nil {
		return nil, err
	}
	out := make([]string, 0, Depth(fullPath))
	for i := SegmentWidth; i <= len(fullPath); i += SegmentWidth {
		out = append(out, fullPath[:i])
	}
	return out, nil
}

// IsDescendantPath reports whether candidate lies strictly below ancestor.
func IsDescendantPath(candidate, ancestor string) bool {
	return len(candidate) > len(ancestor) && strings.HasPrefix(candidate, ancestor)
}

// RebasePath substitutes oldPrefix with newPrefix at the start of p.
func RebasePath(p, oldPrefix, newPrefix string) string {
	if !strings.HasPrefix(p, oldPrefix) {
		panic(fmt.Sprintf("path %q does not start with %q", p, oldPrefix))
	}
	return newPrefix + p[len(oldPrefix):]
}
