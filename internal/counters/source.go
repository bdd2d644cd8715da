package counters

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// TotalInstance is the synthetic instance every multi-instance category
// accepts. It aggregates all other instances.
const TotalInstance = "_Total"

var (
	ErrCategoryNotFound = errors.New("counter category does not exist")
	ErrCounterNotFound  = errors.New("counter does not exist")
	ErrInstanceNotFound = errors.New("counter instance does not exist")
)

// ReadFunc reads one counter for an instance. Single-instance categories are
// always called with an empty instance.
type ReadFunc func(ctx context.Context, instance string) (float64, error)

// A Category groups related counters, e.g. "Processor" or "Memory".
type Category struct {
	Name string
	Help string
	// Instances lists the live instances of a multi-instance category.
	// Nil means the category is single-instance.
	Instances func(ctx context.Context) ([]string, error)
	// HasInstance, when set, answers InstanceExists without listing every
	// instance.
	HasInstance func(ctx context.Context, instance string) bool
	Counters    map[string]ReadFunc
}

// MultiInstance reports whether the category has named instances.
func (c *Category) MultiInstance() bool {
	return c.Instances != nil
}

// Source exposes counters grouped in categories.
type Source interface {
	Categories() []string
	CategoryExists(category string) bool
	InstanceExists(ctx context.Context, category, instance string) bool
	CounterExists(category, counter string) bool
	Counters(category string) []string
	Instances(ctx context.Context, category string) ([]string, error)
	Read(ctx context.Context, category, counter, instance string) (float64, error)
}

// Set is a Source backed by a fixed list of categories.
type Set struct {
	categories map[string]*Category
}

var _ Source = (*Set)(nil)

// NewSet builds a Set. A category whose name was already seen replaces the
// earlier one.
func NewSet(categories ...*Category) *Set {
	s := &Set{categories: make(map[string]*Category, len(categories))}
	for _, c := range categories {
		if c == nil {
			continue
		}
		s.categories[c.Name] = c
	}
	return s
}

func (s *Set) Categories() []string {
	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Category returns the named category.
func (s *Set) Category(name string) (*Category, bool) {
	c, ok := s.categories[name]
	return c, ok
}

func (s *Set) CategoryExists(category string) bool {
	_, ok := s.categories[category]
	return ok
}

func (s *Set) CounterExists(category, counter string) bool {
	c, ok := s.categories[category]
	if !ok {
		return false
	}
	_, ok = c.Counters[counter]
	return ok
}

func (s *Set) Counters(category string) []string {
	c, ok := s.categories[category]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(c.Counters))
	for name := range c.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instances lists the instances of a category, including TotalInstance for
// multi-instance categories. Single-instance categories have none.
func (s *Set) Instances(ctx context.Context, category string) ([]string, error) {
	c, ok := s.categories[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	if !c.MultiInstance() {
		return nil, nil
	}
	instances, err := c.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of %s: %w", category, err)
	}
	out := make([]string, 0, len(instances)+1)
	out = append(out, TotalInstance)
	for _, inst := range instances {
		if inst != TotalInstance {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (s *Set) InstanceExists(ctx context.Context, category, instance string) bool {
	c, ok := s.categories[category]
	if !ok {
		return false
	}
	if !c.MultiInstance() {
		return instance == ""
	}
	switch instance {
	case TotalInstance:
		return true
	case "":
		return false
	}
	if c.HasInstance != nil {
		return c.HasInstance(ctx, instance)
	}
	instances, err := c.Instances(ctx)
	if err != nil {
		return false
	}
	for _, inst := range instances {
		if inst == instance {
			return true
		}
	}
	return false
}

func (s *Set) Read(ctx context.Context, category, counter, instance string) (float64, error) {
	c, ok := s.categories[category]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	read, ok := c.Counters[counter]
	if !ok {
		return 0, fmt.Errorf("%w: %s\\%s", ErrCounterNotFound, category, counter)
	}
	if !c.MultiInstance() && instance != "" {
		return 0, fmt.Errorf("%w: %s(%s)", ErrInstanceNotFound, category, instance)
	}
	if c.MultiInstance() && instance == "" {
		instance = TotalInstance
	}
	return read(ctx, instance)
}
