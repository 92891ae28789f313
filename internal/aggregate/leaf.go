package aggregate

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/coregx/sqldialect/internal/sqltypes"
)

// leafText renders a non-nil scalar in the canonical text form of code:
// base64 for binary leaves, the canonical temporal layouts, plain decimals.
func leafText(code sqltypes.Code, v any) (string, error) {
	dv, err := sqltypes.DescriptorFor(code).Bind(v)
	if err != nil {
		return "", err
	}
	switch x := dv.(type) {
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case string:
		return x, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	case time.Time:
		if code.IsTemporal() {
			return sqltypes.FormatTemporal(code, x)
		}
		return x.Format(time.RFC3339Nano), nil
	case nil:
		return "", fmt.Errorf("unexpected NULL for %s", code)
	}
	return "", fmt.Errorf("cannot render %T as %s", dv, code)
}

// leafValue parses the canonical text form of code into its Go value.
func leafValue(code sqltypes.Code, s string) (any, error) {
	if code.IsBinary() {
		return base64.StdEncoding.DecodeString(s)
	}
	return sqltypes.DescriptorFor(code).Extract(s)
}
