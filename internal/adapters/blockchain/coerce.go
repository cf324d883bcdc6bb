package blockchain

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CoerceArgs converts plan values (as decoded from YAML or JSON) into the Go
// types the ABI packer expects for inputs.
func CoerceArgs(inputs abi.Arguments, values []any) ([]any, error) {
	if len(inputs) != len(values) {
		return nil, fmt.Errorf("expected %d argument(s), got %d", len(inputs), len(values))
	}

	out := make([]any, len(values))
	for i, input := range inputs {
		v, err := coerce(input.Type, values[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, input.Type.String(), err)
		}
		out[i] = v.Interface()
	}
	return out, nil
}

func coerce(t abi.Type, value any) (reflect.Value, error) {
	switch t.T {
	case abi.AddressTy:
		s, ok := value.(string)
		if !ok || !common.IsHexAddress(s) {
			return reflect.Value{}, fmt.Errorf("invalid address %v", value)
		}
		return reflect.ValueOf(common.HexToAddress(s)), nil

	case abi.BoolTy:
		switch v := value.(type) {
		case bool:
			return reflect.ValueOf(v), nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid bool %q", v)
			}
			return reflect.ValueOf(b), nil
		}
		return reflect.Value{}, fmt.Errorf("invalid bool %v", value)

	case abi.StringTy:
		s, ok := value.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("invalid string %v", value)
		}
		return reflect.ValueOf(s), nil

	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return fitInteger(t, n)

	case abi.BytesTy:
		b, err := toBytes(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.FixedBytesTy:
		b, err := toBytes(value)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(b) > t.Size {
			return reflect.Value{}, fmt.Errorf("value is %d bytes, exceeds bytes%d", len(b), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr, nil

	case abi.SliceTy, abi.ArrayTy:
		items, ok := value.([]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a list, got %T", value)
		}
		if t.T == abi.ArrayTy && len(items) != t.Size {
			return reflect.Value{}, fmt.Errorf("expected %d element(s), got %d", t.Size, len(items))
		}

		var container reflect.Value
		if t.T == abi.SliceTy {
			container = reflect.MakeSlice(t.GetType(), len(items), len(items))
		} else {
			container = reflect.New(t.GetType()).Elem()
		}
		for i, item := range items {
			v, err := coerce(*t.Elem, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			container.Index(i).Set(v)
		}
		return container, nil
	}

	return reflect.Value{}, fmt.Errorf("unsupported argument type %s", t.String())
}

func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return nil, fmt.Errorf("invalid integer %v", v)
		}
		return big.NewInt(int64(v)), nil
	case *big.Int:
		return v, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), "_", "")
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", v)
		}
		return n, nil
	}
	return nil, fmt.Errorf("invalid integer %v", value)
}

// fitInteger returns n as the Go type go-ethereum uses for t: sized integers up
// to 64 bits, *big.Int above.
func fitInteger(t abi.Type, n *big.Int) (reflect.Value, error) {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return reflect.Value{}, fmt.Errorf("value %s out of range for uint%d", n, t.Size)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return reflect.Value{}, fmt.Errorf("value %s out of range for int%d", n, t.Size)
		}
	}

	goType := t.GetType()
	if goType.Kind() == reflect.Ptr {
		return reflect.ValueOf(n), nil
	}
	if t.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(goType), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(goType), nil
}

func toBytes(value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected hex string, got %T", value)
	}
	if !strings.HasPrefix(s, "0x") {
		return []byte(s), nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}
