package sheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/xuri/excelize/v2"
)

/*
ReadColumn 读取工作表中的一列文本，column 从 0 开始。

sheetName 为空时读取第一个工作表；skipHeader 为 true 时跳过第一行。
缺失的单元格读作空字符串，行序与表格一致。
*/
func ReadColumn(path, sheetName string, column int, skipHeader bool) ([]string, error) {
	if column < 0 {
		return nil, fmt.Errorf("column %d is negative", column)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, utils.WrapErrorf(err, "open [%s] fail", path)
	}
	defer f.Close()

	if len(sheetName) == 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook [%s] has no sheet", path)
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, utils.WrapErrorf(err, "read sheet [%s] of [%s] fail", sheetName, path)
	}

	if skipHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	ret := make([]string, len(rows))
	for i, row := range rows {
		if column < len(row) {
			ret[i] = row[column]
		}
	}

	return ret, nil
}

// WriteTable replaces the workbook at path with a single sheet holding header and rows.
func WriteTable(path, sheetName string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if len(sheetName) != 0 && sheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
			return utils.WrapErrorf(err, "rename sheet to [%s] fail", sheetName)
		}
	} else {
		sheetName = defaultSheet
	}

	writer, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return utils.WrapError(err, "create stream writer fail")
	}

	if err := writeRow(writer, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(writer, i+2, row); err != nil {
			return err
		}
	}

	if err := writer.Flush(); err != nil {
		return utils.WrapError(err, "flush sheet fail")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return utils.WrapErrorf(err, "mkdir for [%s] fail", path)
	}

	return utils.WrapErrorf(f.SaveAs(path), "save [%s] fail", path)
}

func writeRow(writer *excelize.StreamWriter, index int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, index)
	if err != nil {
		return utils.WrapErrorf(err, "cell name of row %d fail", index)
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	return utils.WrapErrorf(writer.SetRow(cell, row), "write row %d fail", index)
}
