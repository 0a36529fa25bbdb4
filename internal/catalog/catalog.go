// Package catalog holds memoized reference lists: the standard components
// per branch and the strings used by the mobile and workplace apps.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MobileAppComponent holds the strings of the mobile app itself. It is an
// app component even when no app string references it.
const MobileAppComponent = "local_moodlemobileapp"

// Source loads the app string usage tables
type Source interface {
	AppStrings(ctx context.Context) (map[string]string, error)
	WorkplaceStrings(ctx context.Context) (map[string]string, error)
}

// Rule declares a component as standard for an inclusive range of branch
// codes. Zero Since or Until leaves that end open.
type Rule struct {
	Component string
	Since     int
	Until     int
}

// Covers reports whether the rule applies to the branch
func (r Rule) Covers(branch int) bool {
	if r.Since > 0 && branch < r.Since {
		return false
	}
	if r.Until > 0 && branch > r.Until {
		return false
	}
	return true
}

// ParseRules parses lines of the form "<component> [since] [-until]".
// Blank lines and lines starting with # are skipped.
func ParseRules(lines []string) ([]Rule, error) {
	var rules []Rule
	for n, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) > 3 {
			return nil, fmt.Errorf("standard components line %d: too many fields in %q", n+1, line)
		}

		rule := Rule{Component: fields[0]}
		for _, f := range fields[1:] {
			until := strings.HasPrefix(f, "-")
			v, err := strconv.Atoi(strings.TrimPrefix(f, "-"))
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("standard components line %d: invalid branch %q", n+1, f)
			}
			if until {
				rule.Until = v
			} else {
				rule.Since = v
			}
		}
		if rule.Since > 0 && rule.Until > 0 && rule.Since > rule.Until {
			return nil, fmt.Errorf("standard components line %d: empty range in %q", n+1, line)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Catalog memoizes reference lists until Reload is called
type Catalog struct {
	mu        sync.Mutex
	rules     []Rule
	source    Source
	standard  map[int]map[string]bool
	apps      map[string]string
	appComps  map[string]bool
	workplace map[string]string
}

// New creates a catalog from standard component lines and an app string
// source. A nil source yields empty app string lists.
func New(lines []string, source Source) (*Catalog, error) {
	rules, err := ParseRules(lines)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		rules:    rules,
		source:   source,
		standard: make(map[int]map[string]bool),
	}, nil
}

// StandardComponents returns the set of standard components on a branch
func (c *Catalog) StandardComponents(branch int) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.standard[branch]; ok {
		return set
	}
	set := make(map[string]bool)
	for _, r := range c.rules {
		if r.Covers(branch) {
			set[r.Component] = true
		}
	}
	c.standard[branch] = set
	return set
}

// StandardComponentNames returns the standard components of a branch, sorted
func (c *Catalog) StandardComponentNames(branch int) []string {
	return sortedNames(c.StandardComponents(branch))
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsStandard reports whether component is standard on branch
func (c *Catalog) IsStandard(branch int, component string) bool {
	return c.StandardComponents(branch)[component]
}

// AppStrings maps "component/stringid" to the id of the app using it
func (c *Catalog) AppStrings(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appStrings(ctx)
}

func (c *Catalog) appStrings(ctx context.Context) (map[string]string, error) {
	if c.apps != nil {
		return c.apps, nil
	}
	apps, err := c.load(ctx, Source.AppStrings)
	if err != nil {
		return nil, fmt.Errorf("load app strings: %w", err)
	}
	c.apps = apps
	return apps, nil
}

// AppComponents returns the components holding strings used by the app,
// always including MobileAppComponent
func (c *Catalog) AppComponents(ctx context.Context) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.appComps != nil {
		return c.appComps, nil
	}
	apps, err := c.appStrings(ctx)
	if err != nil {
		return nil, err
	}
	comps := map[string]bool{MobileAppComponent: true}
	for key := range apps {
		if component, _, ok := strings.Cut(key, "/"); ok {
			comps[component] = true
		}
	}
	c.appComps = comps
	return comps, nil
}

// AppComponentNames returns the app components, sorted
func (c *Catalog) AppComponentNames(ctx context.Context) ([]string, error) {
	set, err := c.AppComponents(ctx)
	if err != nil {
		return nil, err
	}
	return sortedNames(set), nil
}

// WorkplaceStrings maps "component/stringid" to the id of the workplace
// app using it
func (c *Catalog) WorkplaceStrings(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.workplace != nil {
		return c.workplace, nil
	}
	wp, err := c.load(ctx, Source.WorkplaceStrings)
	if err != nil {
		return nil, fmt.Errorf("load workplace strings: %w", err)
	}
	c.workplace = wp
	return wp, nil
}

func (c *Catalog) load(ctx context.Context, fn func(Source, context.Context) (map[string]string, error)) (map[string]string, error) {
	if c.source == nil {
		return map[string]string{}, nil
	}
	m, err := fn(c.source, ctx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// Reload drops every memoized list
func (c *Catalog) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.standard = make(map[int]map[string]bool)
	c.apps = nil
	c.appComps = nil
	c.workplace = nil
}
