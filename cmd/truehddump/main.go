/*
DESCRIPTION
  truehddump is a command-line front end for the truehd package: it
  reads a raw TrueHD elementary stream, decodes every access unit, logs
  anomalies as they're encountered, and prints per-AU diagnostics
  (channel count, sample count, peak/RMS level) to help verify a stream
  decodes cleanly before wiring it into a larger pipeline.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// truehddump decodes a raw TrueHD elementary stream and reports per-AU
// diagnostics.
package main

import (
	"flag"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/truehd-go/truehd/truehd"
)

// Logging configuration, mirrored on the netsender client's own
// lumberjack/logging setup.
const (
	logPath      = "truehddump.log"
	logMaxSize   = 50 // MB
	logMaxBackup = 5
	logMaxAge    = 7 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

const pkg = "truehddump: "

func main() {
	inputPath := flag.String("in", "", "path to a raw TrueHD elementary stream (required)")
	strict := flag.Bool("strict", false, "abort on the first Warning-or-above anomaly")
	presentation := flag.Int("presentation", -1, "presentation index to decode (0-3); -1 selects the highest available")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, fileLog, logSuppress)

	if *inputPath == "" {
		log.Fatal(pkg + "missing required -in flag")
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		log.Fatal(pkg+"could not open input", "error", err.Error())
	}
	defer f.Close()

	cfg := truehd.Config{Strict: *strict}
	if *presentation >= 0 {
		p := truehd.Presentation(*presentation)
		cfg.Presentation = &p
	}

	if err := dump(f, cfg, log); err != nil {
		log.Fatal(pkg+"decode failed", "error", err.Error())
	}
}

func dump(r io.Reader, cfg truehd.Config, log logging.Logger) error {
	dec := truehd.NewDecoder(r, cfg)

	n := 0
	for {
		au, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		n++

		for _, a := range au.Anomalies {
			logAnomaly(log, a)
		}

		buf, err := au.IntBuffer()
		if err != nil {
			log.Warning(pkg+"could not build interchange buffer", "error", err.Error())
		}
		peak, rms := levels(buf)
		log.Info(pkg+"decoded access unit",
			"index", n,
			"presentation", int(au.Presentation),
			"channels", au.ChannelCount,
			"samples", au.SampleCount,
			"duplicate", au.IsDuplicate,
			"branch", au.HasValidBranch,
			"peak", peak,
			"rms", rms,
		)
	}

	log.Info(pkg+"finished", "access_units", n)
	return nil
}

func logAnomaly(log logging.Logger, a *truehd.Anomaly) {
	msg := pkg + a.Kind.String()
	switch a.Severity {
	case truehd.SeverityError:
		log.Error(msg, "detail", a.Error())
	case truehd.SeverityWarning:
		log.Warning(msg, "detail", a.Error())
	default:
		log.Info(msg, "detail", a.Error())
	}
}

// levels computes the peak absolute sample value and the RMS level over
// an interleaved audio.IntBuffer (truehd.DecodedAccessUnit.IntBuffer).
// gonum/stat supplies the mean; the squared deviations are summed here,
// and RMS is sqrt(mean^2 + population variance).
func levels(buf *audio.IntBuffer) (peak int32, rms float64) {
	if buf == nil || len(buf.Data) == 0 {
		return 0, 0
	}
	flat := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		av := int32(v)
		if av < 0 {
			av = -av
		}
		if av > peak {
			peak = av
		}
		flat[i] = float64(v)
	}
	mean := stat.Mean(flat, nil)
	var sumSq float64
	for _, v := range flat {
		d := v - mean
		sumSq += d * d
	}
	variance := sumSq / float64(len(flat))
	rms = math.Sqrt(mean*mean + variance)
	return peak, rms
}
