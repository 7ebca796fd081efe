package portal

import (
	"strings"

	"github.com/garyjia/classwallet-submitter/internal/browser"
)

// NormalizeCategory rewrites a category name into the portal's spelling.
//
//	"Computer Hardware & Technological Devices"
//	    -> "Computer hardware and technological devices"
//	"Tutoring & Teaching Services - Accredited Individual"
//	    -> "Tutoring and teaching Services – Accredited Individual"
//
// Every other name gets "&" spelled out as "and" and " - " turned into an en dash.
func NormalizeCategory(category string) string {
	if strings.HasPrefix(category, "Computer Hardware") {
		return "Computer hardware and technological devices"
	}

	n := strings.ReplaceAll(category, " & ", " and ")
	n = strings.ReplaceAll(n, "&", "and")
	if strings.Contains(category, "Tutoring") && strings.Contains(category, "Teaching") {
		n = strings.ReplaceAll(n, "and Teaching", "and teaching")
	}
	return strings.ReplaceAll(n, " - ", " – ")
}

// CategoryStrategy is one way of locating a category checkbox. When Inner is
// set the selector matches a container and the checkbox is its Inner descendant.
type CategoryStrategy struct {
	Selector browser.Selector
	Inner    string
}

// CategoryStrategies returns the locators for category in priority order.
// Each kind of match is tried with the caller's spelling first and then
// the normalized one.
func (a *Adapter) CategoryStrategies(category string) []CategoryStrategy {
	names := []string{category}
	if norm := NormalizeCategory(category); norm != category {
		names = append(names, norm)
	}

	var out []CategoryStrategy
	add := func(build func(lit, raw string) CategoryStrategy) {
		for _, name := range names {
			s := build(browser.XPathLiteral(name), name)
			s.Selector = s.Selector.Named("category " + name)
			out = append(out, s)
		}
	}

	add(func(lit, _ string) CategoryStrategy {
		return CategoryStrategy{
			Selector: browser.XPath("//div[@data-test=" + lit + "]//span[contains(@class, 'MuiCheckbox-root')]"),
		}
	})
	add(func(_, raw string) CategoryStrategy {
		return CategoryStrategy{
			Selector: browser.CSS("div[data-test=" + cssString(raw) + "]"),
			Inner:    a.CategoryCheckboxInner,
		}
	})
	add(func(lit, _ string) CategoryStrategy {
		return CategoryStrategy{Selector: browser.XPath("//span[@aria-label=" + lit + "]")}
	})
	add(func(lit, _ string) CategoryStrategy {
		return CategoryStrategy{
			Selector: browser.XPath("//span[contains(@class, 'MuiCheckbox-root')][ancestor::div[contains(., " + lit + ")]]"),
		}
	})

	return out
}

// cssString quotes s as a CSS string literal
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
