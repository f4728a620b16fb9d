package bodymsg

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Ключи словаря сообщений между телефоном и часами.
const (
	KeyRequestBody = "REQUEST_BODY"
	KeyBodyPackage = "BODY_PACKAGE"
)

// DecodeRequest достаёт идентификатор тела из сообщения.
// ok=false, если ключа REQUEST_BODY нет или он пустой.
func DecodeRequest(payload map[string]any) (id int, ok bool, err error) {
	raw, exists := payload[KeyRequestBody]
	if !exists || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("bodymsg: дробный идентификатор тела %v", v)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("bodymsg: идентификатор тела: %w", err)
		}
		return int(n), true, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false, fmt.Errorf("bodymsg: идентификатор тела: %w", err)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("bodymsg: неподдерживаемый тип идентификатора %T", raw)
	}
}

// EncodeRequest строит сообщение запроса тела, как его отправляют часы.
func EncodeRequest(id int) map[string]any {
	return map[string]any{KeyRequestBody: id}
}

// EncodeResponse кладёт байты пакета в словарь ответа массивом чисел.
func EncodeResponse(data []byte) map[string]any {
	values := make([]int, len(data))
	for i, b := range data {
		values[i] = int(b)
	}
	return map[string]any{KeyBodyPackage: values}
}
