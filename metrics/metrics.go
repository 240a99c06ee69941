// Package metrics emits one structured JSON record per extraction run:
// timings and sizes for the raster window extraction and the tree table
// query, written through a pluggable logger.
package metrics

import (
	"bytes"
	"encoding/json"
	"time"
)

type ExtractionInfo struct {
	Duration time.Duration `json:"duration"`
	CRS      string        `json:"crs"`
	Window   [4]float64    `json:"window"`
	NumCells int           `json:"num_cells"`
}

type QueryInfo struct {
	Duration time.Duration `json:"duration"`
	NumPlots int           `json:"num_plots"`
	NumTrees int           `json:"num_trees"`
}

type RunInfo struct {
	RunTime     string          `json:"run_time"`
	RunDuration time.Duration   `json:"run_duration"`
	RasterPath  string          `json:"raster_path"`
	TablePath   string          `json:"table_path"`
	Version     string          `json:"version"`
	Feature     int             `json:"feature"`
	Error       string          `json:"error,omitempty"`
	Extraction  *ExtractionInfo `json:"extraction"`
	Query       *QueryInfo      `json:"query"`
}

type Collector struct {
	Info   *RunInfo
	logger Logger
	start  time.Time
}

func NewCollector(logger Logger) *Collector {
	return &Collector{
		Info: &RunInfo{
			RunTime:    time.Now().Format(time.RFC3339),
			Extraction: &ExtractionInfo{},
			Query:      &QueryInfo{},
		},
		logger: logger,
		start:  time.Now(),
	}
}

// Log finalizes the run duration and hands the record to the logger.
func (c *Collector) Log() {
	c.Info.RunDuration = time.Since(c.start)
	if c.logger != nil {
		c.logger.Log(c.Info)
	}
}

func (i *RunInfo) ToJSON() (string, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(i)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
