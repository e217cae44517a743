package trading

import (
	"position-engine/internal/strategy"
	"position-engine/pkg/utils"
)

// OutputColumns lists the columns appended to the input columns, in order.
var OutputColumns = []string{
	strategy.LabelPCRSellBand,
	strategy.LabelPCRBuyBand,
	strategy.LabelPCRSignal,
	"pcr_bbi_delta",
	"pcr_bbi_total",
	strategy.LabelAccumulationSignal,
	strategy.LabelAccumulationReturn,
	"accumulation_delta",
	"accumulation_total",
	strategy.LabelAmplitudeWarning,
	strategy.LabelAmplitudeAnchorDistance,
	strategy.LabelAmplitudeWarningDistance,
	strategy.LabelAmplitudeCrossDown,
	"amplitude_delta",
	"amplitude_total",
	strategy.LabelWeeklyBBISignal,
	strategy.LabelWeeklyMACDSignal,
	strategy.LabelWeeklyNote,
	"weekly_delta",
	"weekly_total",
}

const positionPlaces = 4

// Table renders the daily rows with every output column. The combined
// column is named after the configured output.
func (r *Result) Table() (header []string, rows [][]string) {
	header = append(header, r.Daily.Columns...)
	header = append(header, OutputColumns...)
	combinedName := "combined_total"
	if r.Combined != nil && r.Combined.Name != "" {
		combinedName = r.Combined.Name
	}
	header = append(header, combinedName)

	var weekOf []int
	if r.Weekly != nil {
		weekOf = WeekIndex(r.Weekly.Dates(), r.Daily.Dates())
	}

	for i := range r.Daily.Rows {
		row := make([]string, 0, len(header))
		for _, col := range r.Daily.Columns {
			var cell string
			if i < len(r.Daily.Raw) {
				cell = r.Daily.Raw[i][col]
			}
			row = append(row, cell)
		}

		values := make(map[string]string, len(OutputColumns))
		for k, v := range r.Labels[i] {
			values[k] = v
		}
		if weekOf != nil && weekOf[i] >= 0 && weekOf[i] < len(r.WeeklyLabels) {
			for k, v := range r.WeeklyLabels[weekOf[i]] {
				values[k] = v
			}
		}
		for name, l := range r.Ledgers {
			values[name+"_delta"] = utils.FormatNumber(l.Delta(i), positionPlaces)
			values[name+"_total"] = utils.FormatNumber(l.Total(i), positionPlaces)
		}

		for _, col := range OutputColumns {
			row = append(row, values[col])
		}
		var combined string
		if r.Combined != nil && i < len(r.Combined.Totals) {
			combined = utils.FormatNumber(r.Combined.Totals[i], positionPlaces)
		}
		rows = append(rows, append(row, combined))
	}
	return header, rows
}
