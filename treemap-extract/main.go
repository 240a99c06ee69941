// treemap-extract pulls a padded window out of a TreeMap plot-id raster for
// each ROI feature in a GeoJSON file, joins the window's plot ids against
// the tree record table and writes one canonical metric tree sample csv per
// feature.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	geo "github.com/nci/geometry"

	"treemap/metrics"
	"treemap/raster"
	"treemap/trees"
	"treemap/utils"
)

func main() {
	confPath := flag.String("conf", "config.yaml", "run configuration file")
	roiPath := flag.String("roi", "", "GeoJSON Feature or FeatureCollection with the ROI polygons")
	roiCRS := flag.String("roi_crs", "EPSG:4326", "CRS of the ROI geometry")
	outDir := flag.String("o", ".", "output directory for tree sample csv files")
	flag.Parse()

	if *roiPath == "" {
		log.Fatal("ROI GeoJSON file required")
	}

	cfg, err := utils.LoadConfigFile(*confPath)
	if err != nil {
		log.Fatal(err)
	}

	feats, err := loadROIFeatures(*roiPath)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := trees.NewConnection(cfg.TreeMap.RasterPath, cfg.TreeMap.TablePath, cfg.TreeMap.Version, cfg.TreeMap.Options)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Verbose {
		log.Printf("opened TreeMap %s: %v", cfg.TreeMap.Version, conn.Handle)
	}

	var logger metrics.Logger = metrics.NewStdoutLogger()
	if cfg.MetricsDir != "" {
		logger = metrics.NewFileLogger(cfg.MetricsDir, 0, cfg.Verbose)
	}
	logger = &lockedLogger{logger: logger}

	var failures int32
	cLimiter := utils.NewConcLimiter(cfg.Extraction.Concurrency)
	for i, feat := range feats {
		cLimiter.Increase()
		go func(idx int, f geo.Feature) {
			defer cLimiter.Decrease()
			if err := processFeature(conn, cfg, f, idx, *roiCRS, *outDir, logger); err != nil {
				log.Printf("feature %d: %v", idx, err)
				atomic.AddInt32(&failures, 1)
			}
		}(i, feat)
	}
	cLimiter.Wait()

	if failures > 0 {
		os.Exit(1)
	}
}

// lockedLogger serializes metric records coming from concurrent feature
// workers.
type lockedLogger struct {
	mu     sync.Mutex
	logger metrics.Logger
}

func (l *lockedLogger) Log(info *metrics.RunInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Log(info)
}

func loadROIFeatures(path string) ([]geo.Feature, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error while reading ROI file %s: %v", path, err)
	}

	var fc geo.FeatureCollection
	if err := json.Unmarshal(data, &fc); err == nil && len(fc.Features) > 0 {
		return fc.Features, nil
	}

	var feat geo.Feature
	if err := json.Unmarshal(data, &feat); err != nil {
		return nil, fmt.Errorf("problem unmarshalling GeoJSON object from %s: %v", path, err)
	}
	return []geo.Feature{feat}, nil
}

func processFeature(conn *trees.Connection, cfg *utils.Config, feat geo.Feature, idx int, roiCRS, outDir string, logger metrics.Logger) error {
	collector := metrics.NewCollector(logger)
	collector.Info.RasterPath = cfg.TreeMap.RasterPath
	collector.Info.TablePath = cfg.TreeMap.TablePath
	collector.Info.Version = cfg.TreeMap.Version
	collector.Info.Feature = idx
	defer collector.Log()

	fail := func(err error) error {
		collector.Info.Error = err.Error()
		return err
	}

	roi := raster.ROI{Geometry: feat.Geometry, CRS: roiCRS}
	inside, err := conn.ContainsROI(roi)
	if err != nil {
		return fail(err)
	}
	if !inside {
		return fail(fmt.Errorf("ROI is not within the raster bounds"))
	}

	t0 := time.Now()
	window, err := conn.ExtractWindow(roi, cfg.Extraction.ProjectionPadding, cfg.Extraction.InterpolationPadding)
	if err != nil {
		return fail(err)
	}
	collector.Info.Extraction = &metrics.ExtractionInfo{
		Duration: time.Since(t0),
		CRS:      window.CRS,
		Window:   [4]float64{window.Bounds.MinX, window.Bounds.MinY, window.Bounds.MaxX, window.Bounds.MaxY},
		NumCells: len(window.Data),
	}

	plots := trees.BuildPlotIndex(window).WithoutNoData()
	ids := plots.UniqueIDs()

	t1 := time.Now()
	sample, err := conn.QueryTreesByPlots(ids)
	if err != nil {
		return fail(err)
	}
	collector.Info.Query = &metrics.QueryInfo{
		Duration: time.Since(t1),
		NumPlots: len(ids),
		NumTrees: len(sample.Trees),
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("trees_%d.csv", idx))
	if err := writeSampleCSV(outPath, sample); err != nil {
		return fail(err)
	}
	if cfg.Verbose {
		log.Printf("feature %d: %d plots, %d trees -> %s", idx, len(ids), len(sample.Trees), outPath)
	}
	return nil
}

func writeSampleCSV(path string, sample *trees.TreeSample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"TREE_ID", "PLOT_ID", "SPCD", "STATUSCD", "DIA", "HT", "CR", "TPA"}); err != nil {
		return err
	}
	for _, t := range sample.Trees {
		record := []string{
			strconv.FormatInt(t.TreeID, 10),
			strconv.FormatInt(t.PlotID, 10),
			strconv.FormatInt(t.SPCD, 10),
			strconv.FormatInt(t.StatusCD, 10),
			strconv.FormatFloat(t.DIA, 'f', -1, 64),
			strconv.FormatFloat(t.HT, 'f', -1, 64),
			strconv.FormatFloat(t.CR, 'f', -1, 64),
			strconv.FormatFloat(t.TPA, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
