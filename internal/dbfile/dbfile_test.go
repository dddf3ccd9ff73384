package dbfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iocscope/iocscope/internal/builder"
)

func parse(t *testing.T, content string) *builder.Document {
	t.Helper()
	doc, err := New().Parse("test.db", []byte(content))
	require.NoError(t, err)
	return doc
}

func TestParse_RecordWithFields(t *testing.T) {
	doc := parse(t, `# vacuum gauge
record(ai, "$(P):pressure") {
    field(DESC, "Chamber pressure")
    field(INP, "@asyn($(PORT) 0)")
    field(FLNK, "$(P):calc")
}
`)
	require.Len(t, doc.Records, 1)
	rec := doc.Records[0]
	assert.Equal(t, "ai", rec.Type)
	assert.Equal(t, "$(P):pressure", rec.Name)
	assert.Equal(t, 2, rec.Line)

	require.Len(t, rec.Fields, 3)
	assert.Equal(t, "DESC", rec.Fields[0].Name)
	assert.Equal(t, "Chamber pressure", rec.Fields[0].Value)
	assert.Equal(t, 3, rec.Fields[0].Line)
	assert.Equal(t, "FLNK", rec.Fields[2].Name)
}

func TestParse_MultipleRecordsAndForms(t *testing.T) {
	doc := parse(t, `record(calc, rawname)
{
    field(CALC, "A+B")
}
grecord(bo, "switch") {
}
`)
	require.Len(t, doc.Records, 2)
	assert.Equal(t, "rawname", doc.Records[0].Name)
	assert.Equal(t, "bo", doc.Records[1].Type)
	assert.Empty(t, doc.Records[1].Fields)
}

func TestParse_Substitute(t *testing.T) {
	doc := parse(t, `substitute "GAUGE=MKS,UNIT=mbar"
substitute "UNIT=torr"
record(ai, "x") {
}
`)
	// First definition wins for document-level substitutions too.
	assert.Equal(t, "MKS", doc.Substitutions["GAUGE"])
	assert.Equal(t, "mbar", doc.Substitutions["UNIT"])
}

func TestParse_SkipsInfoAndAlias(t *testing.T) {
	doc := parse(t, `alias("a", "b")
record(ai, "x") {
    info(autosaveFields, "VAL")
    field(EGU, "mbar")
}
`)
	require.Len(t, doc.Records, 1)
	require.Len(t, doc.Records[0].Fields, 1)
	assert.Equal(t, "EGU", doc.Records[0].Fields[0].Name)
}

func TestParse_ValueWithCommaAndHash(t *testing.T) {
	doc := parse(t, `record(calc, "x") {
    field(CALC, "A>0?1:0, roughly")  # trailing comment
    field(DESC, "uses # inside")
}
`)
	fields := doc.Records[0].Fields
	assert.Equal(t, "A>0?1:0, roughly", fields[0].Value)
	assert.Equal(t, "uses # inside", fields[1].Value)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		line    int
	}{
		{"field outside record", "field(VAL, \"1\")\n", 1},
		{"garbage", "record(ai, \"x\") {\nnonsense here\n}\n", 2},
		{"missing close", "record(ai, \"x\") {\nfield(VAL, \"1\")\n", 1},
		{"malformed header", "record ai x {\n}\n", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Parse("bad.db", []byte(tc.content))
			require.Error(t, err)

			var pe *builder.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "bad.db", pe.File)
			assert.Equal(t, tc.line, pe.Line)
		})
	}
}
