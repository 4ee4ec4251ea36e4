// Package classify maps OSM tag sets to two-level POI categories using a
// declared priority table.
package classify

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/Tang0602/Amap/internal/model"
)

// Wildcard matches any value of a key.
const Wildcard = "*"

// Rule maps a tag (or key wildcard) to a category pair.
type Rule struct {
	Key   string
	Value string
	Main  string
	Sub   string
}

// Category is a classification result.
type Category struct {
	Main string
	Sub  string
}

// Rules is a compiled, immutable rule table. A *Rules is safe for concurrent use.
type Rules struct {
	rules    []Rule
	exact    map[string]map[string]int
	wildcard map[string]int
}

// Compile builds a rule table. Order is priority: index 0 wins over everything.
// A duplicate key/value keeps its first (highest priority) position.
func Compile(rules []Rule) (*Rules, error) {
	r := &Rules{
		rules:    make([]Rule, len(rules)),
		exact:    make(map[string]map[string]int),
		wildcard: make(map[string]int),
	}
	copy(r.rules, rules)

	for i, rule := range r.rules {
		if rule.Key == "" || rule.Value == "" {
			return nil, eris.Errorf("classify: rule %d: empty key or value", i)
		}
		if rule.Main == "" {
			return nil, eris.Errorf("classify: rule %d (%s=%s): empty main category", i, rule.Key, rule.Value)
		}
		if rule.Value == Wildcard {
			if _, dup := r.wildcard[rule.Key]; !dup {
				r.wildcard[rule.Key] = i
			}
			continue
		}
		values, ok := r.exact[rule.Key]
		if !ok {
			values = make(map[string]int)
			r.exact[rule.Key] = values
		}
		if _, dup := values[rule.Value]; !dup {
			values[rule.Value] = i
		}
	}
	return r, nil
}

// Default returns the built-in rule table.
func Default() *Rules {
	r, err := Compile(defaultRules)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of rules.
func (r *Rules) Len() int {
	return len(r.rules)
}

// Classify returns the category of the highest priority rule matched by any
// tag. The result does not depend on the order of tags.
func (r *Rules) Classify(tags model.Tags) (Category, bool) {
	best := -1
	for _, tag := range tags {
		if values, ok := r.exact[tag.Key]; ok {
			if i, ok := values[tag.Value]; ok && (best < 0 || i < best) {
				best = i
			}
		}
		if i, ok := r.wildcard[tag.Key]; ok && (best < 0 || i < best) {
			best = i
		}
	}
	if best < 0 {
		return Category{}, false
	}
	return Category{Main: r.rules[best].Main, Sub: r.rules[best].Sub}, true
}

// fileRule is the YAML shape of a rule: tag is "key=value" or "key=*".
type fileRule struct {
	Tag  string `yaml:"tag"`
	Main string `yaml:"main"`
	Sub  string `yaml:"sub"`
}

// LoadRules reads a rule table from a YAML file of the form
//
//	rules:
//	  - tag: amenity=restaurant
//	    main: Dining
//	    sub: Restaurant
//
// File order is priority order.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: read rules %s", path)
	}

	var doc struct {
		Rules []fileRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "classify: parse rules")
	}
	if len(doc.Rules) == 0 {
		return nil, eris.Errorf("classify: no rules in %s", path)
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for i, fr := range doc.Rules {
		key, value, ok := strings.Cut(fr.Tag, "=")
		if !ok {
			return nil, eris.Errorf("classify: rule %d: tag %q is not key=value", i, fr.Tag)
		}
		rules = append(rules, Rule{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
			Main:  fr.Main,
			Sub:   fr.Sub,
		})
	}
	return Compile(rules)
}
