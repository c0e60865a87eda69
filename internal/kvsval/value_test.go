package kvsval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_AllVariants(t *testing.T) {
	input := `{
		"number": 123,
		"bool": true,
		"string": "First",
		"null": null,
		"array": [456, false, "Second"],
		"object": {"sub-number": 789, "sub-string": "Third"}
	}`

	v, err := FromJSON([]byte(input))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, Number(123), obj["number"])
	assert.Equal(t, Bool(true), obj["bool"])
	assert.Equal(t, String("First"), obj["string"])
	assert.Equal(t, Null{}, obj["null"])
	assert.Equal(t, Array{Number(456), Bool(false), String("Second")}, obj["array"])
	assert.Equal(t, Object{"sub-number": Number(789), "sub-string": String("Third")}, obj["object"])
}

func TestFromJSON_RejectsTrailingData(t *testing.T) {
	_, err := FromJSON([]byte(`123 456`))
	require.Error(t, err)
}

func TestFromJSON_RejectsMalformed(t *testing.T) {
	_, err := FromJSON([]byte(`{"open":`))
	require.Error(t, err)
}

func TestToJSON_SortedKeysRoundTrip(t *testing.T) {
	v := Object{
		"b":   Number(2),
		"a":   Number(1.5),
		"arr": Array{Null{}, Bool(true)},
	}

	data, err := ToJSON(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1.5,"arr":[null,true],"b":2}`, string(data))

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null vs null", Null{}, Null{}, true},
		{"null vs bool", Null{}, Bool(false), false},
		{"numbers equal", Number(1), Number(1), true},
		{"numbers differ", Number(1), Number(2), false},
		{"number vs string", Number(1), String("1"), false},
		{"arrays equal", Array{Number(1), String("x")}, Array{Number(1), String("x")}, true},
		{"arrays length differ", Array{Number(1)}, Array{}, false},
		{"objects equal", Object{"k": Bool(true)}, Object{"k": Bool(true)}, true},
		{"objects key missing", Object{"k": Bool(true)}, Object{"j": Bool(true)}, false},
		{"nested", Object{"k": Array{Object{"x": Null{}}}}, Object{"k": Array{Object{"x": Null{}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestObject_SortedKeysUTF16Order(t *testing.T) {
	// U+1D306 (surrogate pair in UTF-16) sorts before U+FB33 under UTF-16
	// code unit order, while UTF-8 byte order reverses them.
	astral := "\U0001D306"
	hebrew := "\uFB33"
	obj := Object{astral: Number(1), hebrew: Number(2), "a": Number(3)}
	require.Equal(t, []string{"a", astral, hebrew}, obj.SortedKeys())
}
