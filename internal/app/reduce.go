package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jontaylor010/reflectivity-ui/internal/asciidata"
	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/format"
	"github.com/jontaylor010/reflectivity-ui/internal/logging"
	"github.com/jontaylor010/reflectivity-ui/internal/metrics"
	"github.com/jontaylor010/reflectivity-ui/internal/progress"
	"github.com/jontaylor010/reflectivity-ui/internal/reduction"
	"github.com/jontaylor010/reflectivity-ui/internal/sysmon"
)

// runReduce drives the whole workflow: load direct beams and data runs,
// build the reduction list, stitch, merge, and write the result.
func (a *Application) runReduce(ctx context.Context, session *reduction.Session, instrument *asciidata.Instrument, out io.Writer) int {
	start := time.Now()

	if len(a.Config.Files) == 0 && a.Config.Reduced == "" {
		fmt.Fprintln(a.ErrWriter, "nothing to reduce: pass data files or -reduced")
		return apperrors.ExitErrorConfig
	}

	prog := a.progressReporter(out)

	baseCfg := reduction.NewConfiguration(instrument)
	baseCfg.QMin = a.Config.QMin
	baseCfg.QStep = a.Config.QStep
	baseCfg.QCutoff = a.Config.QCutoff
	baseCfg.MatchDirectBeam = a.Config.MatchDirectBeam

	if a.Config.Reduced != "" {
		if err := session.LoadReducedFile(a.Config.Reduced, baseCfg.Copy(), prog.SubTask(20)); err != nil {
			a.Log.Error("reduced file load failed", err, logging.String("path", a.Config.Reduced))
			return apperrors.ExitErrorLoad
		}
	}

	for _, path := range a.Config.DirectBeams {
		if ctx.Err() != nil {
			return apperrors.ExitErrorCanceled
		}
		dbCfg := baseCfg.Copy()
		dbCfg.MatchDirectBeam = false
		if _, err := session.Load(a.resolveDataPath(path), dbCfg, reduction.LoadOptions{}); err != nil {
			a.Log.Error("direct beam load failed", err, logging.String("path", path))
			return apperrors.ExitErrorLoad
		}
		session.AddActiveToDirectBeam()
	}

	loadRange := prog.SubTask(80)
	for i, path := range a.Config.Files {
		if ctx.Err() != nil {
			return apperrors.ExitErrorCanceled
		}
		sub := loadRange.SubTask(float64(i+1) / float64(len(a.Config.Files)) * 100)
		if _, err := session.Load(a.resolveDataPath(path), baseCfg.Copy(), reduction.LoadOptions{Progress: sub}); err != nil {
			a.Log.Error("data load failed", err, logging.String("path", path))
			return apperrors.ExitErrorLoad
		}
		if first, last, ok := session.TrimBounds(); ok {
			a.Log.Debug("trim bounds",
				logging.String("run", session.ActiveMeasurement().ID().String()),
				logging.Int("cut_first", first),
				logging.Int("cut_last", last))
		}
		session.AddActiveToReduction()
	}

	if session.Lists().ReductionSize() == 0 {
		fmt.Fprintln(a.ErrWriter, "reduction list is empty, nothing to merge")
		return apperrors.ExitErrorGeneric
	}

	if err := session.StripOverlap(); err != nil {
		a.Log.Debug("overlap stripping skipped", logging.Err(err))
	}
	scales, err := session.StitchDataSets(a.Config.NormalizeToUnity, a.Config.QCutoff)
	if err != nil {
		a.Log.Error("stitching failed", err)
		return apperrors.ExitErrorGeneric
	}
	a.Log.Debug("stitching scales", logging.String("scales", fmt.Sprintf("%v", scales)))

	if err := session.MergeDataSets(a.Config.Asymmetry); err != nil {
		a.Log.Error("merging failed", err)
		return apperrors.ExitErrorGeneric
	}
	prog.Report(100, "")

	if err := a.writeMerged(session, out); err != nil {
		a.Log.Error("writing output failed", err)
		return apperrors.ExitErrorGeneric
	}

	a.logRunSummary(session, time.Since(start))
	return apperrors.ExitSuccess
}

// resolveDataPath prefixes relative path components with the configured data
// directory.
func (a *Application) resolveDataPath(path string) string {
	if a.Config.DataDir == "" {
		return path
	}
	parts := reduction.PathComponents(path)
	for i, p := range parts {
		if !filepath.IsAbs(p) {
			parts[i] = filepath.Join(a.Config.DataDir, p)
		}
	}
	return strings.Join(parts, "+")
}

// progressReporter builds the root progress reporter: a console line unless
// quiet mode is on.
func (a *Application) progressReporter(out io.Writer) *progress.Reporter {
	if a.Config.Quiet {
		return nil
	}
	return progress.NewReporter(func(value float64, message string) {
		if message == "" {
			fmt.Fprintf(out, "\r[%3.0f%%]%-60s", value, "")
			return
		}
		fmt.Fprintf(out, "\r[%3.0f%%] %-58s", value, message)
	})
}

// writeMerged writes the merged curves to the configured output file, or to
// out when none is set. Channel order is the reduction state order with the
// asymmetry channel last.
func (a *Application) writeMerged(session *reduction.Session, out io.Writer) error {
	merged := session.Merged()
	order := append(session.Lists().States(), reduction.AsymmetryLabel)

	w := out
	if a.Config.Output != "" {
		f, err := os.Create(a.Config.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	} else if !a.Config.Quiet {
		fmt.Fprintln(out)
	}
	return asciidata.WriteMerged(w, merged, order)
}

// logRunSummary emits the end-of-run statistics line.
func (a *Application) logRunSummary(session *reduction.Session, elapsed time.Duration) {
	snap := metrics.NewMemoryCollector().Snapshot()
	sys := sysmon.Sample()
	a.Log.Info("reduction finished",
		logging.String("elapsed", format.FormatExecutionDuration(elapsed)),
		logging.Int("reduction_list", session.Lists().ReductionSize()),
		logging.Int("cached", session.CacheSize()),
		logging.Float64("heap_alloc_mb", snap.HeapAllocMB()),
		logging.String("system", sys.String()))
}
