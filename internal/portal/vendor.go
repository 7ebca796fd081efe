package portal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrVendorNotFound  = errors.New("no vendor matched the search")
	ErrVendorAmbiguous = errors.New("vendor search returned several results")
)

// MatchVendor picks the result row to pay. A single result is accepted as
// is. With several results exactly one label must equal the payee name or
// else the search term, ignoring case. Anything else is an error so the
// wrong vendor is never paid.
func MatchVendor(labels []string, payee, searchTerm string) (int, error) {
	switch len(labels) {
	case 0:
		return -1, ErrVendorNotFound
	case 1:
		return 0, nil
	}

	for _, want := range []string{payee, searchTerm} {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		match, err := uniqueLabel(labels, want)
		if err != nil {
			return -1, err
		}
		if match >= 0 {
			return match, nil
		}
	}
	return -1, fmt.Errorf("%w: none of %q is %q", ErrVendorAmbiguous, labels, payee)
}

func uniqueLabel(labels []string, want string) (int, error) {
	match := -1
	for i, label := range labels {
		if !strings.EqualFold(strings.TrimSpace(label), want) {
			continue
		}
		if match >= 0 {
			return -1, fmt.Errorf("%w: %q matches more than one of %q", ErrVendorAmbiguous, want, labels)
		}
		match = i
	}
	return match, nil
}
