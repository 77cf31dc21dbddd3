package export

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/socsim/core/model"
)

// WriteChart renders an HTML page with SOC, temperature and power over time.
func WriteChart(w io.Writer, title string, tr model.Trajectory) error {
	xAxis := make([]string, tr.Len())
	for i, r := range tr.Records {
		xAxis[i] = strconv.FormatFloat(r.TimeS/60, 'f', -1, 64)
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		lineChart(title+" - state of charge", "SOC", xAxis, map[string][]float64{"SOC": tr.Column("SOC")}),
		lineChart(title+" - temperature", "°C", xAxis, map[string][]float64{
			"battery": tr.Column("temp_C"),
			"ambient": tr.Column("ambient_T"),
		}),
		lineChart(title+" - power", "W", xAxis, map[string][]float64{
			"total":      tr.Column("P_W"),
			"screen":     tr.Column("P_screen_W"),
			"cpu":        tr.Column("P_CPU_W"),
			"network":    tr.Column("P_network_W"),
			"gps":        tr.Column("P_GPS_W"),
			"background": tr.Column("P_background_W"),
		}),
	)
	return page.Render(w)
}

// seriesOrder fixes the legend order; map iteration is random.
var seriesOrder = []string{"SOC", "battery", "ambient", "total", "screen", "cpu", "network", "gps", "background"}

func lineChart(title, unit string, xAxis []string, series map[string][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (min)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)
	line.SetXAxis(xAxis)
	for _, name := range seriesOrder {
		values, ok := series[name]
		if !ok {
			continue
		}
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(name, data)
	}
	return line
}
