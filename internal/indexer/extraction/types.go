package extraction

import "fmt"

// Kind is the category of an extracted symbol.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindStruct    Kind = "struct"
	KindEnum      Kind = "enum"
	KindTrait     Kind = "trait"
	KindInterface Kind = "interface"
	KindClass     Kind = "class"
	KindTypeAlias Kind = "type_alias"
	KindConstant  Kind = "constant"
	KindStatic    Kind = "static"
	KindMacro     Kind = "macro"
	KindModule    Kind = "module"
	KindUnion     Kind = "union"

	// Extensions used by the richer extractors.
	KindProperty    Kind = "property"
	KindField       Kind = "field"
	KindComponent   Kind = "component"
	KindEvent       Kind = "event"
	KindIndexer     Kind = "indexer"
	KindConstructor Kind = "constructor"
)

// IsCallable reports whether items of this kind have parameters and a body.
func (k Kind) IsCallable() bool {
	switch k {
	case KindFunction, KindMethod, KindConstructor, KindMacro:
		return true
	}
	return false
}

// Visibility is the access level of an extracted symbol.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityCrate     Visibility = "crate"
	VisibilityPrivate   Visibility = "private"
	VisibilityExported  Visibility = "exported"
	VisibilityProtected Visibility = "protected"
)

// TruncationMarker is appended to a source snippet that exceeded its line budget.
const TruncationMarker = "... (truncated)"

// Item is one extracted symbol.
type Item struct {
	Kind       Kind       `json:"kind"`
	Name       string     `json:"name"`
	Signature  string     `json:"signature,omitempty"` // header text, never the body
	Source     string     `json:"source,omitempty"`    // bounded snippet, may end with TruncationMarker
	Doc        string     `json:"doc,omitempty"`
	StartLine  int        `json:"start_line"` // 1-based, inclusive
	EndLine    int        `json:"end_line"`   // 1-based, inclusive
	Visibility Visibility `json:"visibility"`
	Metadata   Metadata   `json:"metadata"`
}

// Validate reports a violation of the item's line-span invariants.
func (i *Item) Validate() error {
	if i.StartLine < 1 {
		return fmt.Errorf("item %s %q: start line %d is before line 1", i.Kind, i.Name, i.StartLine)
	}
	if i.EndLine < i.StartLine {
		return fmt.Errorf("item %s %q: end line %d precedes start line %d", i.Kind, i.Name, i.EndLine, i.StartLine)
	}
	if i.Visibility == "" {
		return fmt.Errorf("item %s %q: visibility is empty", i.Kind, i.Name)
	}
	return nil
}

// Metadata is the additive, optional detail attached to an item.
type Metadata struct {
	// Common
	IsAsync     bool     `json:"is_async,omitempty"`
	IsUnsafe    bool     `json:"is_unsafe,omitempty"`
	IsStatic    bool     `json:"is_static,omitempty"`
	IsAbstract  bool     `json:"is_abstract,omitempty"`
	IsGenerator bool     `json:"is_generator,omitempty"`
	ReturnType  string   `json:"return_type,omitempty"`
	Generics    []string `json:"generics,omitempty"`
	Attributes  []string `json:"attributes,omitempty"` // attributes, decorators, annotations
	Parameters  []string `json:"parameters,omitempty"`

	// Structural
	Variants  []string `json:"variants,omitempty"`
	Fields    []string `json:"fields,omitempty"`
	Methods   []string `json:"methods,omitempty"`
	BaseTypes []string `json:"base_types,omitempty"`
	TraitName string   `json:"trait_name,omitempty"` // trait implemented by an impl method

	// Ownership
	OwnerName string `json:"owner_name,omitempty"`
	OwnerKind Kind   `json:"owner_kind,omitempty"`
	Path      string `json:"path,omitempty"` // container path in document-like formats

	DocSections *DocSections `json:"doc_sections,omitempty"`

	// Markup and documents
	TagName        string            `json:"tag_name,omitempty"`
	HTMLAttributes map[string]string `json:"html_attributes,omitempty"`
	Language       string            `json:"language,omitempty"` // code fence or embedded script language

	// Stylesheets
	Selector string `json:"selector,omitempty"`
	AtRule   string `json:"at_rule,omitempty"`

	// Component-oriented code
	IsHook          bool     `json:"is_hook,omitempty"`
	IsComponent     bool     `json:"is_component,omitempty"`
	Hooks           []string `json:"hooks,omitempty"`
	JSXElements     []string `json:"jsx_elements,omitempty"` // markup element names used in the body
	IsDefaultExport bool     `json:"is_default_export,omitempty"`

	Value string `json:"value,omitempty"` // constant initializer or config value
}

// DocSections is the structured form of a documentation comment.
type DocSections struct {
	Summary    string            `json:"summary,omitempty"`
	Errors     string            `json:"errors,omitempty"`
	Panics     string            `json:"panics,omitempty"`
	Safety     string            `json:"safety,omitempty"`
	Examples   []string          `json:"examples,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	ParamTypes map[string]string `json:"param_types,omitempty"`
	Returns    string            `json:"returns,omitempty"`
	ReturnType string            `json:"return_type,omitempty"`
	Raises     map[string]string `json:"raises,omitempty"`
	Yields     string            `json:"yields,omitempty"`
	Notes      []string          `json:"notes,omitempty"`
	Deprecated string            `json:"deprecated,omitempty"`
	See        []string          `json:"see,omitempty"`
	Tags       []RawTag          `json:"tags,omitempty"` // unrecognized tags, kept verbatim
}

// RawTag is a documentation tag no dialect parser recognized.
type RawTag struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// IsEmpty reports whether no section carries content.
func (d *DocSections) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.Summary == "" && d.Errors == "" && d.Panics == "" && d.Safety == "" &&
		len(d.Examples) == 0 && len(d.Params) == 0 && len(d.ParamTypes) == 0 &&
		d.Returns == "" && d.ReturnType == "" && len(d.Raises) == 0 && d.Yields == "" &&
		len(d.Notes) == 0 && d.Deprecated == "" && len(d.See) == 0 && len(d.Tags) == 0
}

// SetParam records a parameter description, allocating the map on first use.
func (d *DocSections) SetParam(name, desc string) {
	if d.Params == nil {
		d.Params = make(map[string]string)
	}
	d.Params[name] = desc
}

// SetParamType records a parameter's documented type.
func (d *DocSections) SetParamType(name, typ string) {
	if d.ParamTypes == nil {
		d.ParamTypes = make(map[string]string)
	}
	d.ParamTypes[name] = typ
}

// SetRaise records a raised or thrown condition.
func (d *DocSections) SetRaise(name, desc string) {
	if d.Raises == nil {
		d.Raises = make(map[string]string)
	}
	d.Raises[name] = desc
}
