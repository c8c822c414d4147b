package symbol

// Kind is the declaration kind a Symbol represents.
type Kind uint8

const (
	KindFunction Kind = iota
	KindMethod
	KindStruct
	KindClass
	KindEnum
	KindTrait
	KindInterface
	KindTypeAlias
	KindModule
	KindField
	KindVariable
	KindConstant
	KindParameter
	KindMacro
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindStruct:
		return "struct"
	case KindClass:
		return "class"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	case KindInterface:
		return "interface"
	case KindTypeAlias:
		return "type_alias"
	case KindModule:
		return "module"
	case KindField:
		return "field"
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindParameter:
		return "parameter"
	case KindMacro:
		return "macro"
	default:
		return "unknown"
	}
}

// Visibility is the access level a symbol was declared with, mapped
// from language-specific modifiers per the table in spec.md §4.D.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityCrate
	VisibilityModule
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityCrate:
		return "crate"
	case VisibilityModule:
		return "module"
	case VisibilityPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// ScopeContext drives resolvability and hoisting rules for a symbol.
type ScopeContext uint8

const (
	ScopeModule ScopeContext = iota
	ScopeGlobal
	ScopePackage
	ScopeClassMember
	ScopeParameter
	ScopeLocal
)

func (s ScopeContext) String() string {
	switch s {
	case ScopeModule:
		return "module"
	case ScopeGlobal:
		return "global"
	case ScopePackage:
		return "package"
	case ScopeClassMember:
		return "class_member"
	case ScopeParameter:
		return "parameter"
	case ScopeLocal:
		return "local"
	default:
		return "unknown"
	}
}

// RelationKind is the type of a directed edge between two symbols.
type RelationKind uint8

const (
	RelationCalls RelationKind = iota
	RelationCalledBy
	RelationExtends
	RelationExtendedBy
	RelationImplements
	RelationImplementedBy
	RelationUses
	RelationUsedBy
	RelationDefines
	RelationDefinedIn
	RelationReferences
	RelationReferencedBy
)

func (r RelationKind) String() string {
	switch r {
	case RelationCalls:
		return "calls"
	case RelationCalledBy:
		return "called_by"
	case RelationExtends:
		return "extends"
	case RelationExtendedBy:
		return "extended_by"
	case RelationImplements:
		return "implements"
	case RelationImplementedBy:
		return "implemented_by"
	case RelationUses:
		return "uses"
	case RelationUsedBy:
		return "used_by"
	case RelationDefines:
		return "defines"
	case RelationDefinedIn:
		return "defined_in"
	case RelationReferences:
		return "references"
	case RelationReferencedBy:
		return "referenced_by"
	default:
		return "unknown"
	}
}

// Inverse returns the reverse relation for a given kind, used when a
// caller wants to look up "who defines me" style queries symmetrically.
func (r RelationKind) Inverse() RelationKind {
	switch r {
	case RelationCalls:
		return RelationCalledBy
	case RelationCalledBy:
		return RelationCalls
	case RelationExtends:
		return RelationExtendedBy
	case RelationExtendedBy:
		return RelationExtends
	case RelationImplements:
		return RelationImplementedBy
	case RelationImplementedBy:
		return RelationImplements
	case RelationUses:
		return RelationUsedBy
	case RelationUsedBy:
		return RelationUses
	case RelationDefines:
		return RelationDefinedIn
	case RelationDefinedIn:
		return RelationDefines
	case RelationReferences:
		return RelationReferencedBy
	case RelationReferencedBy:
		return RelationReferences
	default:
		return r
	}
}
