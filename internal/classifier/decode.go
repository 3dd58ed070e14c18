package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// parseItems extracts the result items from assistant content. It accepts
// the schema's {"results": [...]} object as well as a bare array, and
// strips a surrounding markdown code fence.
func parseItems(content string) ([]map[string]any, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty content")
	}

	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if obj, ok := raw.(map[string]any); ok {
		raw, ok = obj["results"]
		if !ok {
			return nil, fmt.Errorf("missing results field")
		}
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("results is %T, not a list", raw)
	}

	items := make([]map[string]any, 0, len(list))
	for i, v := range list {
		item, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d is %T, not an object", i, v)
		}
		items = append(items, item)
	}
	return items, nil
}

// decodeItems decodes every item into out, accepting numbers sent as
// strings and the like. Unknown keys are an error.
func decodeItems(items []map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(items)
}
