package render

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// table 是无边框、左对齐的输出表格
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers, rows: make([][]string, 0)}
}

func (t *table) add(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *table) render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	if len(t.headers) > 0 {
		tw.SetHeader(t.headers)
	}

	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(true)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator("")
	tw.SetRowSeparator("")
	tw.SetHeaderLine(false)
	tw.SetBorder(false)
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)

	tw.AppendBulk(t.rows)
	tw.Render()
}

// keyValues 打印 "Key: value" 形式的两列表格
func keyValues(w io.Writer, pairs [][2]string) {
	tw := tablewriter.NewWriter(w)

	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator("")
	tw.SetRowSeparator("")
	tw.SetHeaderLine(false)
	tw.SetBorder(false)
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)

	for _, p := range pairs {
		tw.Append([]string{p[0] + ":", p[1]})
	}
	tw.Render()
}
