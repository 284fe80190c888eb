package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/handbeat/internal/adapters/repository"
	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/pkg/logger"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseArgs(t *testing.T) {
	chart := writeFile(t, "chart.yaml", "id: x\n")

	convey.Convey("Given the command line", t, func() {
		convey.Convey("When --chart is missing", func() {
			_, err := parseArgs(nil)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the chart does not exist", func() {
			_, err := parseArgs([]string{"--chart", filepath.Join(t.TempDir(), "nope.yaml")})
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When every flag is given", func() {
			opts, err := parseArgs([]string{"-c", chart, "--config", "cfg.yaml", "--linger"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(opts, convey.ShouldResemble, options{chart: chart, config: "cfg.yaml", linger: true})
		})
	})
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "sessions.db")
	t.Setenv("HANDBEAT_CONFIG", "")
	t.Setenv("HANDBEAT_ADDR", "127.0.0.1:0")
	t.Setenv("HANDBEAT_DB_PATH", db)
	t.Setenv("HANDBEAT_END_PADDING_MS", "300")

	chart := writeFile(t, "chart.yaml", `
id: short
targets:
  - {id: a, time: 0.05, lane: 1, layer: 0, hand: left}
`)

	convey.Convey("Given a one-note chart and no hand input", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := run(ctx, options{chart: chart}, logger.Nop())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the session plays out and is stored as a victory with one miss", func() {
			store, err := repository.NewSQLiteStore(ctx, db)
			convey.So(err, convey.ShouldBeNil)
			defer store.Close()

			top, err := store.TopN(ctx, "short", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(top), convey.ShouldEqual, 1)

			sum, err := store.Get(ctx, top[0].SessionID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(sum.Outcome, convey.ShouldEqual, model.PhaseVictory)
			convey.So(sum.Misses, convey.ShouldEqual, 1)
			convey.So(sum.Score, convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given a detections file that cannot be opened", t, func() {
		err := run(context.Background(), options{chart: chart, detections: filepath.Join(dir, "missing.msgpack")}, logger.Nop())
		convey.So(err, convey.ShouldNotBeNil)
	})
}
