package visit

import "github.com/jward/arbor/internal/tree"

//go:generate go tool stringer -type=Category -linecomment -output=category_string.go

// Category is the coarse kind of a node that visitors dispatch on.
type Category uint8

const (
	CategoryUnknown     Category = iota // unknown
	CategoryFile                        // file
	CategoryDeclaration                 // declaration
	CategoryStatement                   // statement
	CategoryExpression                  // expression
	CategoryToken                       // token
	CategoryComment                     // comment
	CategoryTrivia                      // trivia
	CategoryError                       // error

	// CategoryCount is the number of categories defined.
	CategoryCount = int(iota)
)

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, CategoryCount)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory maps a category's String form back to the category.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories() {
		if c.String() == name {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// Categorizer assigns a category to each element type.
type Categorizer interface {
	CategoryOf(tree.ElementType) Category
}

// CategoryMap is a Categorizer backed by explicit assignments. Unassigned
// composite types fall back to Default; unassigned leaves are tokens.
type CategoryMap struct {
	byType  map[tree.ElementType]Category
	Default Category
}

// NewCategoryMap returns an empty map whose unassigned composites get def.
func NewCategoryMap(def Category) *CategoryMap {
	return &CategoryMap{
		byType: map[tree.ElementType]Category{
			tree.Whitespace:   CategoryTrivia,
			tree.ErrorElement: CategoryError,
		},
		Default: def,
	}
}

// Assign maps each of types to c, overriding earlier assignments.
func (m *CategoryMap) Assign(c Category, types ...tree.ElementType) *CategoryMap {
	for _, t := range types {
		m.byType[t] = c
	}
	return m
}

// AssignSet maps every type in s to c.
func (m *CategoryMap) AssignSet(c Category, s tree.TypeSet) *CategoryMap {
	return m.Assign(c, s.Types()...)
}

// CategoryOf returns the category assigned to t, or Default.
func (m *CategoryMap) CategoryOf(t tree.ElementType) Category {
	if c, ok := m.byType[t]; ok {
		return c
	}
	return m.Default
}

// Of categorizes a node, treating unassigned leaves as tokens.
func Of(cats Categorizer, n tree.Node) Category {
	if m, ok := cats.(*CategoryMap); ok {
		if c, ok := m.byType[n.Type()]; ok {
			return c
		}
		if n.IsLeaf() {
			return CategoryToken
		}
		return m.Default
	}
	return cats.CategoryOf(n.Type())
}
