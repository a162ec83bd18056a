package opendap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDAS = `Attributes {
    hs {
        String long_name "significant height of wind and swell waves";
        Float32 _FillValue 9.96921e+36;
        Float32 valid_range 0.0, 30.0;
        Float32 scale_factor 0.01;
    }
    NC_GLOBAL {
        String title "WW3 \"GFS\" forced";
        extra {
            Int32 version 3;
        }
    }
}
`

func TestParseDAS(t *testing.T) {
	attrs, err := ParseDAS(sampleDAS)
	require.NoError(t, err)

	hs := attrs["hs"]
	require.NotNil(t, hs)
	fill, ok := hs.Float("_FillValue")
	require.True(t, ok)
	assert.InDelta(t, 9.96921e36, fill, 1e31)

	assert.Equal(t, []string{"0.0", "30.0"}, hs["valid_range"].Values)
	assert.Equal(t, "float32", hs["valid_range"].Type)
	assert.Equal(t, "significant height of wind and swell waves", hs["long_name"].Values[0])

	_, ok = hs.Float("long_name")
	assert.False(t, ok)

	assert.Equal(t, `WW3 "GFS" forced`, attrs["NC_GLOBAL"]["title"].Values[0])
	v, ok := attrs["NC_GLOBAL.extra"].Float("version")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestParseDAS_Errors(t *testing.T) {
	_, err := ParseDAS(`Attributes { hs { Float32 _FillValue ; } }`)
	assert.Error(t, err)

	_, err = ParseDAS(`Attributes { hs { String x "unterminated; } }`)
	assert.Error(t, err)
}
