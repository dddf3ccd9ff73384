package model

import "golang.org/x/text/unicode/norm"

// Record is a named control point belonging to one interpreted instance.
//
// Records are uniquely identified by (instance id, record name). A name
// collision within one instance is a validation error raised by the builder,
// never a silent overwrite. Records are immutable once the owning instance
// finishes loading.
type Record struct {
	// Instance is the id of the instance that loaded this record.
	Instance string `json:"instance"`

	// Name is the record name, NFC-normalized.
	Name string `json:"name"`

	// Type is the record-type tag from the database document (e.g. "ai",
	// "calc", "stringout").
	Type string `json:"type"`

	// Fields maps field name to Field. FieldOrder preserves document order
	// for deterministic rendering.
	Fields     map[string]Field `json:"fields"`
	FieldOrder []string         `json:"field_order"`

	// Loc is the location of the load command that produced this record,
	// not the line inside the database file.
	Loc SourceLocation `json:"loc"`
}

// Field is a named attribute of a record, holding both the raw value as
// written in the document and the macro-expanded value.
type Field struct {
	Name string `json:"name"`

	// Raw is the value before macro expansion.
	Raw string `json:"raw"`

	// Value is the expanded value.
	Value string `json:"value"`

	// Link is non-nil when Value matches the device-link syntax and the
	// field therefore references another record.
	Link *LinkTarget `json:"link,omitempty"`

	Loc SourceLocation `json:"loc"`
}

// LinkTarget is the parsed form of a link-typed field value: the referenced
// record name, the referenced field (defaults to VAL when absent), and any
// link-type modifiers that decorated the value.
//
// The target instance is unresolved at this layer; resolution across
// instances happens in the cross-reference graph.
type LinkTarget struct {
	Record    string   `json:"record"`
	Field     string   `json:"field"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// RecordKey globally identifies a record across all loaded instances.
type RecordKey struct {
	Instance string `json:"instance"`
	Name     string `json:"name"`
}

// String renders the key as "instance/name".
func (k RecordKey) String() string {
	return k.Instance + "/" + k.Name
}

// Key returns the record's global key.
func (r *Record) Key() RecordKey {
	return RecordKey{Instance: r.Instance, Name: r.Name}
}

// Field returns the named field and whether it exists.
func (r *Record) Field(name string) (Field, bool) {
	f, ok := r.Fields[name]
	return f, ok
}

// CanonicalName returns the NFC normalization of a record name. All graph
// keys and link targets go through this so that visually identical names
// produced by different editors compare equal.
func CanonicalName(name string) string {
	return norm.NFC.String(name)
}
