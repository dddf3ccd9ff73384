package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuiet(opts Options) *Context {
	opts.Logger = Discard()
	return NewWithOptions(opts)
}

func TestExpand_Identity(t *testing.T) {
	c := newQuiet(Options{})
	c.DefineOne("P", "IOC:A")

	inputs := []string{
		"",
		"plain text",
		"dollar at end $",
		"price is 5$ total",
		"record(ai, \"name\")",
		"P", // bare word, not a reference
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out, err := c.Expand(in)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestExpand_Forms(t *testing.T) {
	c := newQuiet(Options{})
	c.Define(map[string]string{"P": "IOC:A", "N": "1"})

	cases := []struct {
		in   string
		want string
	}{
		{"$(P)", "IOC:A"},
		{"${P}", "IOC:A"},
		{"$P", "IOC:A"},
		{"$(P):$(N)", "IOC:A:1"},
		{"$(P)$(N)", "IOC:A1"},
		{"pre $(P) post", "pre IOC:A post"},
		{"$P:rest", "IOC:A:rest"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			out, err := c.Expand(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestExpand_NestedReference(t *testing.T) {
	c := newQuiet(Options{})
	c.Define(map[string]string{"N": "2", "P2": "IOC:B"})

	out, err := c.Expand("$(P$(N))")
	require.NoError(t, err)
	assert.Equal(t, "IOC:B", out)
}

func TestExpand_ValueReferencesOtherMacro(t *testing.T) {
	c := newQuiet(Options{})
	c.Define(map[string]string{
		"SECTOR": "S01",
		"P":      "$(SECTOR):VAC",
	})

	out, err := c.Expand("$(P):PRESSURE")
	require.NoError(t, err)
	assert.Equal(t, "S01:VAC:PRESSURE", out)
}

func TestExpand_UndefinedIsLiteralAndRecorded(t *testing.T) {
	c := newQuiet(Options{})

	out, err := c.Expand("$(MISSING):1")
	require.NoError(t, err)
	assert.Equal(t, "$(MISSING):1", out)

	require.Len(t, c.Errors(), 1)
	assert.Equal(t, ErrCodeUndefined, c.Errors()[0].Code)
	assert.Equal(t, "MISSING", c.Errors()[0].Name)
}

func TestExpand_UndefinedKeepsDelimiterForm(t *testing.T) {
	c := newQuiet(Options{})

	out, err := c.Expand("${MISSING}")
	require.NoError(t, err)
	assert.Equal(t, "${MISSING}", out)
}

func TestExpand_Default(t *testing.T) {
	c := newQuiet(Options{})
	c.DefineOne("P", "IOC:A")

	cases := []struct {
		in   string
		want string
	}{
		{"$(MISSING=fallback)", "fallback"},
		{"$(P=fallback)", "IOC:A"},
		{"$(MISSING=)", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			out, err := c.Expand(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
	// Defaults are not diagnostics.
	assert.Empty(t, c.Errors())
}

func TestExpand_StrictModeReturnsError(t *testing.T) {
	c := newQuiet(Options{Strict: true})

	out, err := c.Expand("$(MISSING)")
	require.Error(t, err)
	assert.True(t, IsUndefinedError(err))
	assert.Equal(t, "$(MISSING)", out)
}

func TestExpand_CycleDetected(t *testing.T) {
	c := newQuiet(Options{})
	c.Define(map[string]string{
		"A": "$(B)",
		"B": "$(A)",
	})

	out, err := c.Expand("$(A)")
	require.NoError(t, err)
	assert.Equal(t, "$(A)", out)

	require.NotEmpty(t, c.Errors())
	found := false
	for _, e := range c.Errors() {
		if e.Code == ErrCodeCycle {
			found = true
		}
	}
	assert.True(t, found, "expected a cycle diagnostic")
}

func TestExpand_SelfReferenceCycle(t *testing.T) {
	c := newQuiet(Options{})
	c.DefineOne("A", "prefix-$(A)")

	out, err := c.Expand("$(A)")
	require.NoError(t, err)
	// The inner self-reference degrades to literal text.
	assert.Equal(t, "prefix-$(A)", out)
}

func TestScope_ShadowDoesNotLeak(t *testing.T) {
	c := newQuiet(Options{})
	c.DefineOne("P", "outer")

	c.PushScope()
	c.DefineOne("P", "inner")
	out, err := c.Expand("$(P)")
	require.NoError(t, err)
	assert.Equal(t, "inner", out)
	c.PopScope()

	out, err = c.Expand("$(P)")
	require.NoError(t, err)
	assert.Equal(t, "outer", out)
}

func TestScope_InnerDefinitionDropsOnPop(t *testing.T) {
	c := newQuiet(Options{})

	c.PushScope()
	c.DefineOne("X", "1")
	c.PopScope()

	out, err := c.Expand("$(X)")
	require.NoError(t, err)
	assert.Equal(t, "$(X)", out)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, ErrCodeUndefined, c.Errors()[0].Code)
}

func TestScope_PopRootPanics(t *testing.T) {
	c := newQuiet(Options{})
	assert.Panics(t, func() { c.PopScope() })
}

func TestDefine_RedefineInvalidatesCache(t *testing.T) {
	c := newQuiet(Options{})
	c.DefineOne("P", "first")

	out, _ := c.Expand("$(P)") // populate the cache
	assert.Equal(t, "first", out)

	c.DefineOne("P", "second")
	out, _ = c.Expand("$(P)")
	assert.Equal(t, "second", out)
}

func TestExpand_ResolvesRelativeToDefiningScope(t *testing.T) {
	c := newQuiet(Options{})
	c.Define(map[string]string{
		"BASE": "root",
		"P":    "$(BASE):X",
	})

	c.PushScope()
	c.DefineOne("BASE", "shadowed")
	// P was defined in the root scope; its value resolves there.
	out, err := c.Expand("$(P)")
	require.NoError(t, err)
	assert.Equal(t, "root:X", out)
	c.PopScope()
}

func TestSnapshot(t *testing.T) {
	c := newQuiet(Options{})
	c.Define(map[string]string{"P": "IOC:A", "N": "1"})

	c.PushScope()
	c.DefineOne("N", "2")

	snap := c.Snapshot()
	assert.Equal(t, map[string]string{"P": "IOC:A", "N": "2"}, snap)

	// The snapshot is a copy; mutating it does not touch the context.
	snap["P"] = "mutated"
	v, ok := c.Lookup("P")
	require.True(t, ok)
	assert.Equal(t, "IOC:A", v)
}

func TestLookup_Undefined(t *testing.T) {
	c := newQuiet(Options{})
	_, ok := c.Lookup("NOPE")
	assert.False(t, ok)
}
