package pipeline

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/riskzones-cli/internal/config"
	"github.com/sells-group/riskzones-cli/internal/report"
)

// WriteOutputs writes the zones file and the optional EDUs, roads and
// metrics files named by run. With the xlsx format the tables are saved as
// sheets of one workbook at run.Output.
func WriteOutputs(res *Result, run *config.RunConfig, format string) error {
	zones, err := report.ZonesTable(res.Grid)
	if err != nil {
		return err
	}
	tables := []*report.Table{zones}
	paths := []string{run.Output}

	if run.OutputEDUs != "" {
		t, err := report.EDUsTable(res.Grid)
		if err != nil {
			return err
		}
		tables = append(tables, t)
		paths = append(paths, run.OutputEDUs)
	}
	if run.OutputRoads != "" {
		t, err := report.RoadsTable(res.Grid)
		if err != nil {
			return err
		}
		tables = append(tables, t)
		paths = append(paths, run.OutputRoads)
	}

	switch format {
	case report.FormatXLSX:
		path := xlsxPath(run.Output)
		if err := report.WriteXLSX(path, tables...); err != nil {
			return err
		}
		paths = []string{path}
	case "", report.FormatCSV:
		for i, t := range tables {
			if err := report.WriteCSVFile(paths[i], t); err != nil {
				return err
			}
		}
	default:
		return eris.Errorf("pipeline: unknown output format %q", format)
	}

	if run.ResData != "" {
		if err := report.WriteMetrics(run.ResData, res.Metrics); err != nil {
			return err
		}
		paths = append(paths, run.ResData)
	}

	zap.L().Info("pipeline: outputs written", zap.Strings("files", paths))
	return nil
}

func xlsxPath(output string) string {
	if strings.HasSuffix(strings.ToLower(output), ".xlsx") {
		return output
	}
	return strings.TrimSuffix(output, ".csv") + ".xlsx"
}
