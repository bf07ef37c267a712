package sidecar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdd9/frvm/category"
	"github.com/vdd9/frvm/model"
)

func testRegistry(t *testing.T, keys ...string) *category.Registry {
	t.Helper()
	r := category.NewRegistry()
	for _, k := range keys {
		_, err := r.Register(k, "")
		require.NoError(t, err)
	}
	require.NoError(t, r.Finalize())
	return r
}

func TestParse(t *testing.T) {
	reg := testRegistry(t, "🥗", "🍔", "🔥")

	tests := []struct {
		name    string
		text    string
		want    Assignments
		skipped []string
	}{
		{
			name: "yes and no",
			text: "+🥗-🍔",
			want: Assignments{0: model.Yes, 1: model.No},
		},
		{
			name: "single yes",
			text: "+🍔",
			want: Assignments{1: model.Yes},
		},
		{
			name: "empty",
			text: "",
			want: Assignments{},
		},
		{
			name: "whitespace insignificant",
			text: " +🥗\n-🔥 ",
			want: Assignments{0: model.Yes, 2: model.No},
		},
		{
			name: "last occurrence wins",
			text: "+🥗-🥗",
			want: Assignments{0: model.No},
		},
		{
			name: "order insignificant",
			text: "-🍔+🥗",
			want: Assignments{0: model.Yes, 1: model.No},
		},
		{
			name:    "unknown key skipped",
			text:    "+🥗X",
			want:    Assignments{0: model.Yes},
			skipped: []string{"X"},
		},
		{
			name:    "unregistered emoji skipped",
			text:    "+🌮-🍔",
			want:    Assignments{1: model.No},
			skipped: []string{"🌮"},
		},
		{
			name:    "leading garbage skipped",
			text:    "junk+🥗",
			want:    Assignments{0: model.Yes},
			skipped: []string{"junk"},
		},
		{
			name:    "bare trailing sign skipped",
			text:    "+🥗+",
			want:    Assignments{0: model.Yes},
			skipped: []string{"+"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asg, skipped := Parse(reg, tt.text)
			assert.Equal(t, tt.want, asg)
			assert.Equal(t, tt.skipped, skipped)
		})
	}
}

func TestSerialize(t *testing.T) {
	reg := testRegistry(t, "🥗", "🍔", "🔥")

	got := Serialize(reg, Assignments{1: model.No, 0: model.Yes})
	assert.Equal(t, "+🥗-🍔", got, "registry index order, unset omitted")

	assert.Equal(t, "", Serialize(reg, Assignments{}))
	assert.Equal(t, "", Serialize(reg, Assignments{2: model.Unset}))
}

func TestRoundTrip(t *testing.T) {
	reg := testRegistry(t, "🥗", "🍔", "🔥", "👍🏻")

	mappings := []Assignments{
		{},
		{0: model.Yes},
		{0: model.Yes, 1: model.No, 3: model.Yes},
		{2: model.No, 3: model.No},
	}
	for _, m := range mappings {
		back, skipped := Parse(reg, Serialize(reg, m))
		assert.Empty(t, skipped)
		want := Assignments{}
		for k, v := range m {
			if v != model.Unset {
				want[k] = v
			}
		}
		assert.Equal(t, want, back)
	}
}
