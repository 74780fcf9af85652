package refcache

import (
	"encoding/json"
	"fmt"

	"github.com/goforj/kvconform/kvcontract"
)

// Values are stored as a tagged union so every kind in the cacheable set
// round-trips exactly: int64 stays int64 (no float widening), strings stay
// byte-for-byte, and composite kinds nest. Encoding on write is also what
// gives the facade its snapshot semantics.

const (
	kindNil    = "nil"
	kindString = "str"
	kindInt    = "int"
	kindFloat  = "float"
	kindBool   = "bool"
	kindSeq    = "seq"
	kindMap    = "map"
	kindError  = "err"
)

type wireValue struct {
	Kind  string               `json:"k"`
	Str   string               `json:"s,omitempty"`
	Int   int64                `json:"i,omitempty"`
	Float float64              `json:"f,omitempty"`
	Bool  bool                 `json:"b,omitempty"`
	Seq   []wireValue          `json:"q,omitempty"`
	Map   map[string]wireValue `json:"m,omitempty"`
	Err   *wireError           `json:"e,omitempty"`
}

type wireError struct {
	Code    int    `json:"c"`
	Message string `json:"msg"`
}

func encodeValue(v any) ([]byte, error) {
	wv, err := toWire(v)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(wv)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return body, nil
}

func decodeValue(body []byte) (any, error) {
	var wv wireValue
	if err := json.Unmarshal(body, &wv); err != nil {
		return nil, fmt.Errorf("decode cache value: %w", err)
	}
	return fromWire(wv)
}

func toWire(v any) (wireValue, error) {
	switch x := v.(type) {
	case nil:
		return wireValue{Kind: kindNil}, nil
	case string:
		return wireValue{Kind: kindString, Str: x}, nil
	case int:
		return wireValue{Kind: kindInt, Int: int64(x)}, nil
	case int64:
		return wireValue{Kind: kindInt, Int: x}, nil
	case float64:
		return wireValue{Kind: kindFloat, Float: x}, nil
	case bool:
		return wireValue{Kind: kindBool, Bool: x}, nil
	case []any:
		seq := make([]wireValue, len(x))
		for i, e := range x {
			we, err := toWire(e)
			if err != nil {
				return wireValue{}, err
			}
			seq[i] = we
		}
		return wireValue{Kind: kindSeq, Seq: seq}, nil
	case map[string]any:
		m := make(map[string]wireValue, len(x))
		for k, e := range x {
			we, err := toWire(e)
			if err != nil {
				return wireValue{}, err
			}
			m[k] = we
		}
		return wireValue{Kind: kindMap, Map: m}, nil
	case *kvcontract.CacheError:
		return wireValue{Kind: kindError, Err: &wireError{Code: x.Code, Message: x.Message}}, nil
	default:
		return wireValue{}, fmt.Errorf("value of type %T is outside the cacheable set", v)
	}
}

func fromWire(wv wireValue) (any, error) {
	switch wv.Kind {
	case kindNil:
		return nil, nil
	case kindString:
		return wv.Str, nil
	case kindInt:
		return wv.Int, nil
	case kindFloat:
		return wv.Float, nil
	case kindBool:
		return wv.Bool, nil
	case kindSeq:
		out := make([]any, len(wv.Seq))
		for i, we := range wv.Seq {
			e, err := fromWire(we)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case kindMap:
		out := make(map[string]any, len(wv.Map))
		for k, we := range wv.Map {
			e, err := fromWire(we)
			if err != nil {
				return nil, err
			}
			out[k] = e
		}
		return out, nil
	case kindError:
		if wv.Err == nil {
			return nil, fmt.Errorf("decode cache value: error kind without payload")
		}
		return &kvcontract.CacheError{Code: wv.Err.Code, Message: wv.Err.Message}, nil
	default:
		return nil, fmt.Errorf("decode cache value: unknown kind %q", wv.Kind)
	}
}
