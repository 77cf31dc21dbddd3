package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/socsim/core/model"
	"github.com/kilianp07/socsim/core/simulation"
)

// WriteJSON writes the trajectory records to w as a JSON array keyed by
// column name.
func WriteJSON(w io.Writer, tr model.Trajectory) error {
	records := tr.Records
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes the trajectory to w with a model.Columns header and one
// row per record.
func WriteCSV(w io.Writer, tr model.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns); err != nil {
		return err
	}
	for _, r := range tr.Records {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SweepColumns is the header of WriteSweepCSV.
var SweepColumns = []string{
	"variant", "ticks", "final_soc", "final_temp_C", "peak_temp_C",
	"avg_P_W", "energy_Wh", "time_to_empty_s",
}

// WriteSweepCSV writes one summary row per sweep variant. An unavailable
// time-to-empty estimate is left empty.
func WriteSweepCSV(w io.Writer, results []simulation.SweepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SweepColumns); err != nil {
		return err
	}
	for _, r := range results {
		s := r.Summary
		tte := ""
		if s.TimeToEmptyOK {
			tte = ftoa(s.TimeToEmptyS)
		}
		rec := []string{
			r.Variant.Name,
			strconv.Itoa(s.Ticks),
			ftoa(s.FinalSOC),
			ftoa(s.FinalTempC),
			ftoa(s.PeakTempC),
			ftoa(s.AvgPowerW),
			ftoa(s.EnergyWh),
			tte,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
