package schema

import (
	"strconv"
	"strings"
)

// ruleSet is a validate tag split into the parts the deriver cares about.
type ruleSet struct {
	own       string
	item      string
	required  bool
	omitempty bool
}

// parseRules splits a validate tag at the first dive.
// Presence rules are lifted out because the gate checks presence structurally.
func parseRules(tag string) ruleSet {
	var rs ruleSet
	if tag == "" {
		return rs
	}
	parts := strings.Split(tag, ",")
	own := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		switch p {
		case "":
			continue
		case "dive":
			rs.item = strings.Join(parts[i+1:], ",")
			rs.own = strings.Join(own, ",")
			return rs
		case "required":
			rs.required = true
			continue
		case "omitempty":
			rs.omitempty = true
			continue
		}
		own = append(own, p)
	}
	rs.own = strings.Join(own, ",")
	return rs
}

// hasRule reports whether rules contain any of the named validators.
func hasRule(rules string, names ...string) bool {
	for _, part := range strings.Split(rules, ",") {
		name, _, _ := strings.Cut(part, "=")
		for _, n := range names {
			if name == n {
				return true
			}
		}
	}
	return false
}

// joinRules concatenates two rule lists.
func joinRules(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "," + b
}

// constraintsOf translates validator rules into documentation constraints.
// Alternations (a|b) have no single-limit equivalent and are left out.
func constraintsOf(kind Kind, rules string) Constraints {
	var c Constraints
	if rules == "" {
		return c
	}
	for _, part := range strings.Split(rules, ",") {
		if strings.Contains(part, "|") {
			continue
		}
		name, param, _ := strings.Cut(part, "=")
		switch name {
		case "oneof":
			c.Enum = strings.Fields(param)
			continue
		case "min", "gte", "max", "lte", "gt", "lt", "len":
		default:
			continue
		}

		f, err := strconv.ParseFloat(param, 64)
		if err != nil {
			continue
		}
		switch kind {
		case KindInteger, KindNumber:
			switch name {
			case "min", "gte":
				c.raiseMin(f, false)
			case "max", "lte":
				c.lowerMax(f, false)
			case "gt":
				c.raiseMin(f, true)
			case "lt":
				c.lowerMax(f, true)
			case "len":
				c.raiseMin(f, false)
				c.lowerMax(f, false)
			}
		case KindString:
			lo, hi := lengthBounds(name, int(f))
			c.MinLength, c.MaxLength = pick(c.MinLength, lo), pick(c.MaxLength, hi)
		case KindArray, KindMap:
			lo, hi := lengthBounds(name, int(f))
			c.MinItems, c.MaxItems = pick(c.MinItems, lo), pick(c.MaxItems, hi)
		}
	}
	return c
}

// raiseMin keeps the tighter of the current and the new lower bound.
func (c *Constraints) raiseMin(f float64, exclusive bool) {
	if c.Minimum == nil || f > *c.Minimum || (f == *c.Minimum && exclusive) {
		c.Minimum, c.ExclusiveMinimum = &f, exclusive
	}
}

// lowerMax keeps the tighter of the current and the new upper bound.
func (c *Constraints) lowerMax(f float64, exclusive bool) {
	if c.Maximum == nil || f < *c.Maximum || (f == *c.Maximum && exclusive) {
		c.Maximum, c.ExclusiveMaximum = &f, exclusive
	}
}

// lengthBounds maps a length rule to inclusive bounds.
func lengthBounds(name string, n int) (lo, hi *int) {
	switch name {
	case "min", "gte":
		return &n, nil
	case "max", "lte":
		return nil, &n
	case "gt":
		m := n + 1
		return &m, nil
	case "lt":
		m := n - 1
		return nil, &m
	case "len":
		return &n, &n
	}
	return nil, nil
}

func pick(current, next *int) *int {
	if next != nil {
		return next
	}
	return current
}
