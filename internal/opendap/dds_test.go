package opendap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDDS = `Dataset {
    Float64 time[time = 25];
    Float32 lat[lat = 181];
    Float32 lon[lon = 361];
    Grid {
      ARRAY:
        Float32 hs[time = 25][lat = 181][lon = 361];
      MAPS:
        Float64 time[time = 25];
        Float32 lat[lat = 181];
        Float32 lon[lon = 361];
    } hs;
    Structure {
        Int32 id;
        String name;
    } station;
} w3g_reg_20230601_1200.nc;
`

func TestParseDDS(t *testing.T) {
	dds, err := ParseDDS(sampleDDS)
	require.NoError(t, err)

	assert.Equal(t, "w3g_reg_20230601_1200.nc", dds.Name)
	require.Len(t, dds.Vars, 5)

	lat, ok := dds.Var("lat")
	require.True(t, ok)
	assert.Equal(t, KindArray, lat.Kind)
	assert.Equal(t, Float32, lat.Type)
	assert.Equal(t, []Dim{{Name: "lat", Size: 181}}, lat.Dims)

	hs, ok := dds.Var("hs")
	require.True(t, ok)
	assert.Equal(t, KindGrid, hs.Kind)
	assert.Equal(t, 25*181*361, hs.Len())
	assert.Equal(t, 1, hs.DimIndex("lat"))
	assert.Equal(t, -1, hs.DimIndex("depth"))
	require.Len(t, hs.Maps, 3)
	assert.Equal(t, "time", hs.Maps[0].Name)
	assert.Equal(t, Float64, hs.Maps[0].Type)

	st, ok := dds.Var("station")
	require.True(t, ok)
	assert.Equal(t, KindStructure, st.Kind)
	assert.Len(t, st.Members, 2)
}

func TestParseDDS_AnonymousDims(t *testing.T) {
	dds, err := ParseDDS("Dataset { Int16 flags[3][4]; } x;")
	require.NoError(t, err)
	v, _ := dds.Var("flags")
	assert.Equal(t, []Dim{{Size: 3}, {Size: 4}}, v.Dims)
}

func TestParseDDS_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not a dataset", "Attributes { }"},
		{"unknown type", "Dataset { Float128 x; } d;"},
		{"bad size", "Dataset { Float32 x[lat = many]; } d;"},
		{"missing semicolon", "Dataset { Float32 x } d;"},
		{"unterminated", "Dataset { Float32 x;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDDS(tt.src)
			assert.Error(t, err)
		})
	}
}
