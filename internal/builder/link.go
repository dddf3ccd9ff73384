package builder

import (
	"strconv"
	"strings"

	"github.com/iocscope/iocscope/internal/model"
)

// linkModifiers are the link-type decorations that may trail a device-link
// target: process-passive flags and maximize-severity flags.
var linkModifiers = map[string]bool{
	"PP": true, "NPP": true, "CA": true, "CP": true, "CPP": true,
	"MS": true, "NMS": true, "MSS": true, "MSI": true,
}

// isLinkFieldName reports whether a field name is link-typed in the common
// record types: input/output/desired-output links, forward links, and the
// scan/select links.
func isLinkFieldName(name string) bool {
	switch name {
	case "INP", "OUT", "DOL", "FLNK", "SDIS", "SELL", "TSEL":
		return true
	}
	if len(name) == 4 {
		switch name[:3] {
		case "INP", "OUT":
			return name[3] >= 'A' && name[3] <= 'U'
		case "LNK":
			return name[3] >= '0' && name[3] <= '9'
		}
	}
	return false
}

// ParseTarget decides whether an expanded field value is a device link and
// parses it into a target. It returns nil for non-link values.
//
// A value is a link when it names a target record, optionally followed by a
// `.FIELD` suffix and link-type modifiers, and either the field itself is
// link-typed or at least one known modifier is present. Hardware addresses
// (`@...`, `#...`) and numeric constants are never links. The target field
// defaults to VAL.
func ParseTarget(fieldName, value string) *model.LinkTarget {
	v := strings.TrimSpace(value)
	if v == "" || v[0] == '@' || v[0] == '#' {
		return nil
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return nil // constant link
	}

	tokens := strings.Fields(v)
	var mods []string
	if len(tokens) > 1 {
		mods = tokens[1:]
	}
	for _, m := range mods {
		if !linkModifiers[m] {
			return nil
		}
	}
	if len(mods) == 0 && !isLinkFieldName(fieldName) {
		return nil
	}

	record, field := tokens[0], "VAL"
	if dot := strings.LastIndexByte(record, '.'); dot > 0 {
		record, field = record[:dot], record[dot+1:]
	}
	return &model.LinkTarget{
		Record:    model.CanonicalName(record),
		Field:     field,
		Modifiers: mods,
	}
}
