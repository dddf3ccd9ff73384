package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iocscope/iocscope/internal/model"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr string
	}{
		{"exact", Exact("VAC:01:PRES"), ""},
		{"prefix", Prefix("VAC:"), ""},
		{"glob", Glob("VAC:*:PRES"), ""},
		{"empty exact", Exact(""), "empty pattern"},
		{"empty glob", Glob(""), "empty pattern"},
		{"bad glob", Glob("VAC:["), "bad glob"},
		{"unknown kind", Query{Kind: "fuzzy", Pattern: "x"}, `unknown kind "fuzzy"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		in   string
		want bool
	}{
		{"exact hit", Exact("VAC:01:PRES"), "VAC:01:PRES", true},
		{"exact miss", Exact("VAC:01:PRES"), "VAC:01:PRESX", false},
		{"prefix hit", Prefix("VAC:"), "VAC:01:PRES", true},
		{"prefix miss", Prefix("VAC:"), "RF:01:PWR", false},
		{"glob hit", Glob("VAC:*:PRES"), "VAC:01:PRES", true},
		{"glob miss", Glob("VAC:*:PRES"), "VAC:01:SET", false},
		{"unknown kind never matches", Query{Kind: "fuzzy", Pattern: "x"}, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Match(tt.in))
		})
	}
}

func TestTraversalValidate(t *testing.T) {
	start := model.RecordKey{Instance: "a", Name: "REC"}

	assert.NoError(t, Traversal{Start: start, Direction: Outbound, Depth: 1}.Validate())

	err := Traversal{Direction: Outbound, Depth: 1}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start record")

	err = Traversal{Start: start, Direction: "sideways", Depth: 1}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown direction")

	err = Traversal{Start: start, Direction: Inbound, Depth: 0}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth must be >= 1")
}
