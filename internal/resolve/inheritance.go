package resolve

import "github.com/standardbeagle/codanna-go/internal/symbol"

// ParentLink records one parent a type extends/implements/embeds and
// the relation kind that link should be stored as.
type ParentLink struct {
	Parent string
	Kind   symbol.RelationKind
}

// InheritanceResolver tracks child->parent relationships and
// per-type method sets so cross-type method calls can be resolved to
// the type that actually defines them (spec.md §4.E).
//
// Rust additionally disambiguates inherent methods (which always win)
// from trait-provided ones, via InherentMethods and TypeMethodTrait;
// other languages simply never populate those two maps.
type InheritanceResolver struct {
	parents     map[string][]ParentLink       // child -> parents
	methods     map[string]map[string]bool    // type -> method set (declared directly)
	inherent    map[string]map[string]bool    // type -> inherent method set (Rust)
	methodOwner map[string]map[string]string  // type -> method -> trait name (Rust)
}

// NewInheritanceResolver returns an empty resolver.
func NewInheritanceResolver() *InheritanceResolver {
	return &InheritanceResolver{
		parents:     make(map[string][]ParentLink),
		methods:     make(map[string]map[string]bool),
		inherent:    make(map[string]map[string]bool),
		methodOwner: make(map[string]map[string]string),
	}
}

// AddParent records that child extends/implements/embeds parent.
func (r *InheritanceResolver) AddParent(child, parent string, kind symbol.RelationKind) {
	r.parents[child] = append(r.parents[child], ParentLink{Parent: parent, Kind: kind})
}

// AddMethod records that typeName declares method directly (for Rust,
// this means "defined in some impl block", inherent or trait).
func (r *InheritanceResolver) AddMethod(typeName, method string) {
	set, ok := r.methods[typeName]
	if !ok {
		set = make(map[string]bool)
		r.methods[typeName] = set
	}
	set[method] = true
}

// AddInherentMethod records method as an inherent (non-trait) method
// on typeName. Inherent methods always take resolution precedence
// over trait-provided methods of the same name.
func (r *InheritanceResolver) AddInherentMethod(typeName, method string) {
	r.AddMethod(typeName, method)
	set, ok := r.inherent[typeName]
	if !ok {
		set = make(map[string]bool)
		r.inherent[typeName] = set
	}
	set[method] = true
}

// AddTraitMethod records that typeName's method is provided by an
// `impl traitName for typeName` block.
func (r *InheritanceResolver) AddTraitMethod(typeName, method, traitName string) {
	r.AddMethod(typeName, method)
	owners, ok := r.methodOwner[typeName]
	if !ok {
		owners = make(map[string]string)
		r.methodOwner[typeName] = owners
	}
	// First match wins; ambiguity among multiple traits defining the
	// same method is a warning the caller logs, never an error here.
	if _, exists := owners[method]; !exists {
		owners[method] = traitName
	}
}

// IsInherent reports whether typeName.method is an inherent method,
// which always takes precedence over any trait-provided method of the
// same name (spec.md end-to-end scenario 1).
func (r *InheritanceResolver) IsInherent(typeName, method string) bool {
	return r.inherent[typeName] != nil && r.inherent[typeName][method]
}

// OwningTrait returns the trait that provides typeName.method, if any
// was recorded via AddTraitMethod.
func (r *InheritanceResolver) OwningTrait(typeName, method string) (string, bool) {
	owners, ok := r.methodOwner[typeName]
	if !ok {
		return "", false
	}
	t, ok := owners[method]
	return t, ok
}

// CandidateTraits returns every trait name that defines method on
// typeName's supertype chain, used to detect and report ambiguity.
func (r *InheritanceResolver) CandidateTraits(typeName, method string) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(t string)
	walk = func(t string) {
		for _, link := range r.parents[t] {
			if owners, ok := r.methodOwner[t]; ok {
				if tr, ok := owners[method]; ok && !seen[tr] {
					seen[tr] = true
					out = append(out, tr)
				}
			}
			walk(link.Parent)
		}
	}
	if owners, ok := r.methodOwner[typeName]; ok {
		if tr, ok := owners[method]; ok {
			seen[tr] = true
			out = append(out, tr)
		}
	}
	walk(typeName)
	return out
}

// ResolveMethod walks typeName's base chain depth-first, in declared
// base order, and returns the first type in the chain (including
// typeName itself) that defines method. Inherent methods on typeName
// itself short-circuit the walk.
func (r *InheritanceResolver) ResolveMethod(typeName, method string) (string, bool) {
	if r.IsInherent(typeName, method) {
		return typeName, true
	}
	visited := make(map[string]bool)
	var walk func(t string) (string, bool)
	walk = func(t string) (string, bool) {
		if visited[t] {
			return "", false
		}
		visited[t] = true
		if set, ok := r.methods[t]; ok && set[method] {
			return t, true
		}
		for _, link := range r.parents[t] {
			if defType, ok := walk(link.Parent); ok {
				return defType, true
			}
		}
		return "", false
	}
	return walk(typeName)
}

// IsSubtype reports whether child extends/implements parent,
// transitively, via any recorded relation kind.
func (r *InheritanceResolver) IsSubtype(child, parent string) bool {
	if child == parent {
		return true
	}
	visited := make(map[string]bool)
	var walk func(t string) bool
	walk = func(t string) bool {
		if visited[t] {
			return false
		}
		visited[t] = true
		for _, link := range r.parents[t] {
			if link.Parent == parent {
				return true
			}
			if walk(link.Parent) {
				return true
			}
		}
		return false
	}
	return walk(child)
}

// AllMethods returns the union of methods typeName has, including
// those inherited from its base chain. Language-specific hiding rules
// (e.g. a subclass redeclaring a method) are respected naturally
// because the set is keyed by method name.
func (r *InheritanceResolver) AllMethods(typeName string) []string {
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	var walk func(t string)
	walk = func(t string) {
		if visited[t] {
			return
		}
		visited[t] = true
		for m := range r.methods[t] {
			seen[m] = true
		}
		for _, link := range r.parents[t] {
			walk(link.Parent)
		}
	}
	walk(typeName)
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	return out
}

// Parents returns the direct parents recorded for typeName.
func (r *InheritanceResolver) Parents(typeName string) []ParentLink {
	return r.parents[typeName]
}
