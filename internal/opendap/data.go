package opendap

import (
	"bytes"
	"fmt"
	"io"

	xdr "github.com/davecgh/go-xdr/xdr2"
)

// Array holds decoded values of one array, converted to float64
type Array struct {
	Name   string
	Type   BaseType
	Dims   []Dim
	Values []float64
}

// splitDataResponse separates the DDS header of a .dods response from the XDR payload
func splitDataResponse(body []byte) (string, []byte, error) {
	for _, marker := range []string{"\nData:\n", "\nData:\r\n"} {
		if i := bytes.Index(body, []byte(marker)); i >= 0 {
			return string(body[:i]), body[i+len(marker):], nil
		}
	}
	return "", nil, fmt.Errorf("%w: no Data: marker in response", ErrMalformed)
}

// decodeData reads the XDR payload described by dds. Grid arrays are keyed
// by the grid name, map vectors by their own names.
func decodeData(dds *DDS, payload []byte) (map[string]*Array, error) {
	dec := xdr.NewDecoder(bytes.NewReader(payload))
	out := make(map[string]*Array)

	for _, v := range dds.Vars {
		switch v.Kind {
		case KindArray:
			a, err := decodeArray(dec, v)
			if err != nil {
				return nil, err
			}
			out[v.Name] = a
		case KindGrid:
			a, err := decodeArray(dec, v)
			if err != nil {
				return nil, err
			}
			out[v.Name] = a
			for _, m := range v.Maps {
				ma, err := decodeArray(dec, m)
				if err != nil {
					return nil, err
				}
				out[m.Name] = ma
			}
		default:
			return nil, fmt.Errorf("%w: constructor type of %s", ErrUnsupported, v.Name)
		}
	}
	return out, nil
}

func decodeArray(dec *xdr.Decoder, v *Variable) (*Array, error) {
	n := v.Len()
	a := &Array{Name: v.Name, Type: v.Type, Dims: v.Dims}

	if len(v.Dims) > 0 {
		// DAP2 sends the element count twice ahead of an array
		for i := 0; i < 2; i++ {
			count, _, err := dec.DecodeUint()
			if err != nil {
				return nil, fmt.Errorf("%w: %s length: %v", ErrMalformed, v.Name, err)
			}
			if int(count) != n {
				return nil, fmt.Errorf("%w: %s has %d elements, DDS declares %d", ErrMalformed, v.Name, count, n)
			}
		}
	}

	if v.Type == Byte {
		size := n
		raw, _, err := dec.DecodeFixedOpaque(int32(size))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, v.Name, err)
		}
		a.Values = make([]float64, n)
		for i, b := range raw {
			a.Values[i] = float64(b)
		}
		return a, nil
	}

	a.Values = make([]float64, n)
	for i := 0; i < n; i++ {
		val, err := decodeValue(dec, v.Type)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: %s truncated at element %d", ErrMalformed, v.Name, i)
			}
			return nil, fmt.Errorf("%w: %s element %d: %v", ErrMalformed, v.Name, i, err)
		}
		a.Values[i] = val
	}
	return a, nil
}

func decodeValue(dec *xdr.Decoder, t BaseType) (float64, error) {
	switch t {
	case Int16, Int32:
		v, _, err := dec.DecodeInt()
		return float64(v), err
	case UInt16, UInt32:
		v, _, err := dec.DecodeUint()
		return float64(v), err
	case Float32:
		v, _, err := dec.DecodeFloat()
		return float64(v), err
	case Float64:
		v, _, err := dec.DecodeDouble()
		return v, err
	}
	return 0, fmt.Errorf("%w: element type %s", ErrUnsupported, t)
}
