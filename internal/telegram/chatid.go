package telegram

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/edgard/relaychat/internal/errors"
)

// Telegram chat id conventions: private chats and basic groups are plain
// signed integers; supergroups and channels start with -100 and are sent as
// strings so large magnitudes are never coerced.
const (
	supergroupPrefix = "-100"
	minChatIDLength  = 5
)

var numericChatID = regexp.MustCompile(`^-?\d+$`)

// ChatID is a normalized destination for an outbound call.
type ChatID struct {
	numeric bool
	num     int64
	str     string
}

// Value returns the id in wire form: int64 for numeric ids, string otherwise.
func (c ChatID) Value() any {
	if c.numeric {
		return c.num
	}
	return c.str
}

// IsNumeric reports whether the id is sent as a number.
func (c ChatID) IsNumeric() bool {
	return c.numeric
}

func (c ChatID) String() string {
	if c.numeric {
		return strconv.FormatInt(c.num, 10)
	}
	return c.str
}

// MarshalJSON encodes the id in wire form.
func (c ChatID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// Normalize validates a configured or user-supplied chat id and converts it to
// wire form. raw may be nil, a string, any integer, a float64 or a json.Number.
func Normalize(raw any) (ChatID, error) {
	s, ok := rawChatID(raw)
	if !ok {
		return ChatID{}, apperrors.ErrMissingIdentifier
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ChatID{}, apperrors.ErrMissingIdentifier
	}

	id := ChatID{str: s}
	if numericChatID.MatchString(s) && !strings.HasPrefix(s, supergroupPrefix) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return ChatID{}, apperrors.InvalidIdentifier(s)
		}
		id = ChatID{numeric: true, num: n}
	}

	if len(id.String()) < minChatIDLength {
		return ChatID{}, apperrors.InvalidIdentifier(s)
	}
	return id, nil
}

// rawChatID renders raw as a string; false means the id is absent.
func rawChatID(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "NaN", true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Pointer:
		if rv.IsNil() {
			return "", false
		}
		return rawChatID(rv.Elem().Interface())
	default:
		return fmt.Sprint(raw), true
	}
}
