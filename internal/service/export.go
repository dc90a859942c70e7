package service

import (
    "fmt"
    "io"

    "github.com/xuri/excelize/v2"

    "github.com/iliyamo/equipment-control/internal/model"
)

const exportSheet = "Equipment"

var exportHeader = []any{"ID", "Building", "Room", "Brand", "Model", "Active", "Condition", "ESP address"}

// WriteEquipmentXLSX renders the equipment inventory as a spreadsheet with a
// frozen, bold header row.
func WriteEquipmentXLSX(w io.Writer, items []*model.Equipment) error {
    f := excelize.NewFile()
    defer f.Close()

    if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
        return err
    }
    if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
        return err
    }
    bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
    if err != nil {
        return err
    }
    if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
        return err
    }
    if err := f.SetPanes(exportSheet, &excelize.Panes{
        Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
    }); err != nil {
        return err
    }

    for i, e := range items {
        row := []any{e.ID, e.Building, e.Room, e.Brand, e.Model, e.Active, e.Condition, e.ESPAddress}
        if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
            return err
        }
    }
    if err := f.SetColWidth(exportSheet, "B", "H", 16); err != nil {
        return err
    }
    _, err = f.WriteTo(w)
    return err
}
