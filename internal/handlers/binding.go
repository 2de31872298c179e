package handlers

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

// BindNestedOrFlat decodes a JSON body that either wraps the payload under
// key (`{"partner": {...}}`) or sends it flat (`{...}`). Offline sync clients
// produce both shapes.
func BindNestedOrFlat(c *gin.Context, key string, obj any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}

	var envelope map[string]json.RawMessage
	if json.Unmarshal(body, &envelope) == nil {
		if nested, ok := envelope[key]; ok {
			return json.Unmarshal(nested, obj)
		}
	}
	return json.Unmarshal(body, obj)
}
