package runner

import (
	"github.com/playwright-community/playwright-go"
)

// DOM is the single query primitive the resolver needs from a page.
type DOM interface {
	QuerySelector(selector string, options ...playwright.PageQuerySelectorOptions) (playwright.ElementHandle, error)
}

// FindByRole walks the role's candidate selectors in order and returns the
// first element that exists, along with the selector that matched. Query
// errors on individual candidates are treated as non-matches; only the
// exhausted list is an error.
func FindByRole(dom DOM, table SelectorTable, role Role) (playwright.ElementHandle, string, error) {
	candidates := table[role]
	for _, sel := range candidates {
		el, err := dom.QuerySelector(sel)
		if err != nil {
			continue
		}
		if el != nil {
			return el, sel, nil
		}
	}
	return nil, "", &ElementNotFoundError{Role: role, Tried: candidates}
}

// RoleExists reports whether any candidate for the role matches.
func RoleExists(dom DOM, table SelectorTable, role Role) bool {
	_, _, err := FindByRole(dom, table, role)
	return err == nil
}
