package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"mp4box/mp4"
)

func main() {
	jsonOut := flag.Bool("json", false, "print the movie summary as json")
	showTree := flag.Bool("tree", false, "print the box tree")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if flag.NArg() != 1 {
		logrus.Fatal("usage: mp4dump [-json] [-tree] <file.mp4>")
	}
	path := flag.Arg(0)

	fd, err := os.Open(path)
	if err != nil {
		logrus.WithError(err).Fatal("open input")
	}
	defer fd.Close()

	if *showTree {
		tree, err := mp4.ParseBoxTree(fd)
		if err != nil {
			logrus.WithError(err).Fatal("parse box tree")
		}
		for _, warning := range tree.Warnings {
			logrus.WithField("file", path).Warn(warning.Error())
		}
		tree.Dump(os.Stdout)
		return
	}

	movie, err := mp4.ReadMovie(fd)
	if err != nil {
		logrus.WithError(err).Fatal("read movie")
	}
	for _, warning := range movie.Warnings() {
		logrus.WithField("file", path).Warn(warning.Error())
	}
	summary := movie.Summary()
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			logrus.WithError(err).Fatal("encode summary")
		}
		return
	}
	logrus.WithFields(logrus.Fields{
		"brand":     summary.MajorBrand,
		"timescale": summary.Timescale,
		"duration":  summary.DurationSec,
		"tracks":    len(summary.Tracks),
	}).Info("movie")
	for _, track := range summary.Tracks {
		logrus.WithFields(logrus.Fields{
			"id":       track.TrackId,
			"handler":  track.Handler,
			"entry":    track.SampleEntry,
			"samples":  track.SampleCount,
			"sync":     track.SyncCount,
			"duration": track.DurationSec,
		}).Info("track")
	}
}
