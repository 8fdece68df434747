package browser

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

const xpathPrefix = "xpath:"

// Selector addresses elements either by CSS or by XPath.
type Selector struct {
	Expr  string
	XPath bool
}

// CSS returns a CSS selector.
func CSS(expr string) Selector { return Selector{Expr: expr} }

// XPath returns an XPath selector.
func XPath(expr string) Selector { return Selector{Expr: expr, XPath: true} }

// ParseSelector classifies s and checks its syntax. Expressions prefixed
// with "xpath:" or starting with "/", "./" or "(" are XPath; anything else is
// CSS.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, fmt.Errorf("browser: empty selector")
	}

	var sel Selector
	switch {
	case strings.HasPrefix(s, xpathPrefix):
		sel = XPath(strings.TrimSpace(strings.TrimPrefix(s, xpathPrefix)))
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "./"), strings.HasPrefix(s, "("):
		sel = XPath(s)
	default:
		sel = CSS(s)
	}

	if err := sel.Validate(); err != nil {
		return Selector{}, err
	}
	return sel, nil
}

// Validate compiles the expression.
func (s Selector) Validate() error {
	if s.XPath {
		if _, err := xpath.Compile(s.Expr); err != nil {
			return fmt.Errorf("browser: invalid xpath %q: %w", s.Expr, err)
		}
		return nil
	}
	if _, err := cascadia.Compile(s.Expr); err != nil {
		return fmt.Errorf("browser: invalid css %q: %w", s.Expr, err)
	}
	return nil
}

func (s Selector) String() string {
	if s.XPath {
		return xpathPrefix + s.Expr
	}
	return s.Expr
}
