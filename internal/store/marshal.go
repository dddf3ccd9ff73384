package store

import (
	"encoding/json"
	"fmt"

	"github.com/iocscope/iocscope/internal/model"
)

// storedField is the JSON shape of one field inside the records table.
// Field order in the array is document order.
type storedField struct {
	Name      string   `json:"name"`
	Raw       string   `json:"raw"`
	Value     string   `json:"value"`
	LinkRec   string   `json:"link_rec,omitempty"`
	LinkField string   `json:"link_field,omitempty"`
	LinkMods  []string `json:"link_mods,omitempty"`
}

// marshalFields serializes a record's fields in document order.
func marshalFields(rec *model.Record) (string, error) {
	fields := make([]storedField, 0, len(rec.FieldOrder))
	for _, name := range rec.FieldOrder {
		f := rec.Fields[name]
		sf := storedField{Name: f.Name, Raw: f.Raw, Value: f.Value}
		if f.Link != nil {
			sf.LinkRec = f.Link.Record
			sf.LinkField = f.Link.Field
			sf.LinkMods = f.Link.Modifiers
		}
		fields = append(fields, sf)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields of %s: %w", rec.Name, err)
	}
	return string(data), nil
}

// unmarshalFields rebuilds the field map and order onto a record whose Loc
// is already set. Field locations mirror the record's: both come from the
// same load command.
func unmarshalFields(rec *model.Record, data string) error {
	var fields []storedField
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return fmt.Errorf("unmarshal fields of %s: %w", rec.Name, err)
	}
	rec.Fields = make(map[string]model.Field, len(fields))
	rec.FieldOrder = make([]string, 0, len(fields))
	for _, sf := range fields {
		f := model.Field{
			Name:  sf.Name,
			Raw:   sf.Raw,
			Value: sf.Value,
			Loc:   rec.Loc,
		}
		if sf.LinkRec != "" {
			f.Link = &model.LinkTarget{
				Record:    sf.LinkRec,
				Field:     sf.LinkField,
				Modifiers: sf.LinkMods,
			}
		}
		rec.Fields[sf.Name] = f
		rec.FieldOrder = append(rec.FieldOrder, sf.Name)
	}
	return nil
}

// marshalMacros serializes a location's macro snapshot.
func marshalMacros(macros map[string]string) (string, error) {
	if macros == nil {
		macros = map[string]string{}
	}
	data, err := json.Marshal(macros)
	if err != nil {
		return "", fmt.Errorf("marshal macros: %w", err)
	}
	return string(data), nil
}

func unmarshalMacros(data string) (map[string]string, error) {
	var macros map[string]string
	if err := json.Unmarshal([]byte(data), &macros); err != nil {
		return nil, fmt.Errorf("unmarshal macros: %w", err)
	}
	if len(macros) == 0 {
		return nil, nil
	}
	return macros, nil
}
