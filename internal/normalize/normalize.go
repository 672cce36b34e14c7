package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/bytedance/sonic"
)

// ErrNotJSON is returned when the body is not a JSON object. It counts as a
// connectivity failure.
var ErrNotJSON = fmt.Errorf("%w: response is not a JSON object", common.ErrConnectivity)

// errorFields are the envelope keys a backend error may arrive under. FastAPI
// HTTPException bodies use "detail".
var errorFields = []string{"error", "detail"}

// Normalize converts a raw response body into a Verdict.
//
// A body carrying an error envelope yields a *common.BackendError with the
// message untouched. A body whose label field is missing or of the wrong type
// yields common.ErrMalformedResponse. Normalize never panics and is
// deterministic for a given input.
func Normalize(channel model.Channel, raw []byte) (model.Verdict, error) {
	rule, ok := Rules[channel]
	if !ok {
		return model.Verdict{}, fmt.Errorf("%w: no mapping for channel %q", common.ErrInvalidConfig, channel)
	}

	obj, err := decodeObject(raw)
	if err != nil {
		return model.Verdict{}, err
	}

	if msg, ok := errorMessage(obj); ok {
		return model.Verdict{}, &common.BackendError{Message: msg}
	}

	label, labelValue, err := rule.Label.apply(obj)
	if err != nil {
		return model.Verdict{}, err
	}

	v := model.Verdict{
		Channel:     channel,
		Label:       label,
		SubjectEcho: stringField(obj, rule.EchoField),
		Confidence:  rule.Confidence.apply(obj, labelValue),
		Raw:         bytes.Clone(raw),
	}
	if label == model.LabelSuspicious {
		v.Display = rule.Label.SuspiciousDisplay
	} else {
		v.Display = rule.Label.SafeDisplay
	}
	return v, nil
}

// BackendMessage extracts an error envelope message from a body, if any.
func BackendMessage(raw []byte) (string, bool) {
	obj, err := decodeObject(raw)
	if err != nil {
		return "", false
	}
	return errorMessage(obj)
}

func decodeObject(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrNotJSON
	}
	var obj map[string]any
	if err := sonic.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, ErrNotJSON
	}
	return obj, nil
}

func errorMessage(obj map[string]any) (string, bool) {
	for _, key := range errorFields {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s, true
		}
		// FastAPI validation failures put a list of objects under "detail".
		if b, err := sonic.Marshal(v); err == nil {
			return string(b), true
		}
	}
	return "", false
}

// apply returns the canonical label and, for integer classes, the class value.
func (r LabelRule) apply(obj map[string]any) (model.Label, int, error) {
	v, ok := obj[r.Field]
	if !ok || v == nil {
		return "", 0, fmt.Errorf("%w: missing %q", common.ErrMalformedResponse, r.Field)
	}

	switch r.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return "", 0, fmt.Errorf("%w: %q is not a string", common.ErrMalformedResponse, r.Field)
		}
		if s == r.Suspicious {
			return model.LabelSuspicious, 0, nil
		}
		return model.LabelSafe, 0, nil

	case KindInt:
		n, ok := asInt(v)
		if !ok {
			return "", 0, fmt.Errorf("%w: %q is not an integer", common.ErrMalformedResponse, r.Field)
		}
		want, err := strconv.Atoi(r.Suspicious)
		if err != nil {
			return "", 0, fmt.Errorf("%w: bad suspicious value %q", common.ErrInvalidConfig, r.Suspicious)
		}
		if n == want {
			return model.LabelSuspicious, n, nil
		}
		return model.LabelSafe, n, nil
	}

	return "", 0, errors.New("unknown label kind")
}

// apply returns nil when the confidence is absent or unusable.
func (r ConfidenceRule) apply(obj map[string]any, class int) *model.Confidence {
	var value float64

	switch r.Mode {
	case ConfidenceDirect:
		f, ok := asFloat(obj[r.Field])
		if !ok {
			return nil
		}
		value = f

	case ConfidenceIndexed:
		arr, ok := obj[r.Field].([]any)
		if !ok || class < 0 || class >= len(arr) {
			return nil
		}
		f, ok := asFloat(arr[class])
		if !ok {
			return nil
		}
		value = f

	default:
		return nil
	}

	return &model.Confidence{Value: value, Scale: r.Scale}
}

func stringField(obj map[string]any, key string) string {
	if key == "" {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}

func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
