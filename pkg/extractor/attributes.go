package extractor

import (
	"fmt"
	"sort"

	"github.com/Gobusters/ectologger"
)

// Attribute is one submitter-defined tag/value pair from an attribute block.
type Attribute struct {
	Tag   string
	Value string
}

// CustomAttributes pulls the `<LEVEL>_ATTRIBUTES` block out of a metadata
// node and returns a level-qualified, de-duplicated mapping. The block may be
// absent (empty result), a single attribute object, or a list of them.
// Entries lacking a VALUE field are discarded. Duplicate tags are retained
// with a 1-based occurrence suffix after sorting by (tag, value); a single
// occurrence keeps the bare form. Keys are qualified as "tag [LEVEL]".
func CustomAttributes(node map[string]any, level string, logger ectologger.Logger) (map[string]string, error) {
	raw := Lookup(node, level+"_ATTRIBUTES", level+"_ATTRIBUTE")
	if raw == nil {
		return map[string]string{}, nil
	}

	attrs, err := collectAttributes(raw)
	if err != nil {
		logger.WithFields(map[string]any{
			"level":      level,
			"attributes": raw,
		}).Error("Failed to parse custom attributes")
		return nil, err
	}

	sort.Slice(attrs, func(i, j int) bool {
		if attrs[i].Tag != attrs[j].Tag {
			return attrs[i].Tag < attrs[j].Tag
		}
		return attrs[i].Value < attrs[j].Value
	})

	counts := make(map[string]int, len(attrs))
	for _, a := range attrs {
		counts[a.Tag]++
	}

	result := make(map[string]string, len(attrs))
	occurrence := make(map[string]int, len(attrs))
	for _, a := range attrs {
		key := a.Tag
		if counts[a.Tag] > 1 {
			occurrence[a.Tag]++
			key = fmt.Sprintf("%s_%d", a.Tag, occurrence[a.Tag])
			logger.WithFields(map[string]any{
				"level": level,
				"tag":   a.Tag,
				"key":   key,
			}).Debug("Duplicate attribute tag retained with occurrence suffix")
		}
		result[fmt.Sprintf("%s [%s]", key, level)] = a.Value
	}

	return result, nil
}

func collectAttributes(raw any) ([]Attribute, error) {
	var attrs []Attribute
	for _, entry := range AsList(raw) {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("attribute entry is not a mapping: %T", entry)
		}
		tag, ok := m["TAG"]
		if !ok {
			return nil, fmt.Errorf("attribute entry has no TAG field: %v", m)
		}
		value, ok := m["VALUE"]
		if !ok {
			// entries without a value carry no information
			continue
		}
		attrs = append(attrs, Attribute{Tag: AsString(tag), Value: AsString(value)})
	}
	return attrs, nil
}
