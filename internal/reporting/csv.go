package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvHeader is the column order of WriteCSV.
var csvHeader = []string{"run_id", "role", "item_index", "stage", "mint", "signature", "error"}

// WriteCSV writes one row per token. The collection has an empty item_index.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range r.Tokens {
		index := ""
		if t.Index >= 0 {
			index = strconv.Itoa(t.Index)
		}
		if err := cw.Write([]string{r.RunID, t.Role, index, t.Stage, t.Mint, t.Signature, t.Error}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
