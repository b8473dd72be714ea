package core

// Reconcile checks that a source's columns are exactly the table's
// non-managed columns. Names match case-sensitively and order does not
// matter. Any difference rejects the whole source with a
// *ColumnMismatchError; there is no positional or fuzzy mapping.
//
// Missing columns are listed in table order, extra columns in source order.
func Reconcile(schema *TableSchema, managedColumn string, sourceColumns []string) error {
	expected := schema.InputColumnNames(managedColumn)

	inSource := make(map[string]bool, len(sourceColumns))
	for _, c := range sourceColumns {
		inSource[c] = true
	}
	inTable := make(map[string]bool, len(expected))
	for _, c := range expected {
		inTable[c] = true
	}

	var mismatch ColumnMismatchError
	for _, c := range expected {
		if !inSource[c] {
			mismatch.Missing = append(mismatch.Missing, c)
		}
	}
	listed := make(map[string]bool)
	for _, c := range sourceColumns {
		if !inTable[c] && !listed[c] {
			mismatch.Extra = append(mismatch.Extra, c)
			listed[c] = true
		}
	}

	if len(mismatch.Missing) == 0 && len(mismatch.Extra) == 0 {
		return nil
	}
	return &mismatch
}
