package converter

import "github.com/nconklindev/sheetshift/internal/types"

// InferFields returns every field name used by records, each once, in first-seen order.
// Only names matter; values are never inspected. Nested values are not flattened into
// sub-fields: a field holding an object is still a single column.
func InferFields(records types.RecordSet) types.FieldOrder {
	fields := types.FieldOrder{}
	seen := make(map[string]bool)

	for _, record := range records {
		if record == nil {
			continue
		}
		for pair := record.Oldest(); pair != nil; pair = pair.Next() {
			if seen[pair.Key] {
				continue
			}
			seen[pair.Key] = true
			fields = append(fields, pair.Key)
		}
	}

	return fields
}
