package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/handbeat/internal/config"
	"github.com/okian/handbeat/internal/domain/judge"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TickRateHz, convey.ShouldEqual, 120)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 4096)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then its geometry is the stock playfield", func() {
			convey.So(cfg.Geometry(), convey.ShouldResemble, judge.DefaultGeometry())
		})

		convey.Convey("Then the tick interval follows the rate", func() {
			cfg.TickRateHz = 100
			convey.So(cfg.TickInterval(), convey.ShouldEqual, 10*time.Millisecond)
		})

		convey.Convey("Then it yields one option per conditioner setting", func() {
			convey.So(len(cfg.ConditionerOptions()), convey.ShouldEqual, 4)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with one bad value", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = "" },
			"zero tick rate":      func(c *config.Config) { c.TickRateHz = 0 },
			"zero queue":          func(c *config.Config) { c.QueueSize = 0 },
			"zero speed":          func(c *config.Config) { c.ApproachSpeed = 0 },
			"negative radius":     func(c *config.Config) { c.CollisionRadius = -1 },
			"negative window":     func(c *config.Config) { c.WindowBefore = -0.1 },
			"alignment above one": func(c *config.Config) { c.MinAlignment = 1.5 },
			"three lanes":         func(c *config.Config) { c.LaneX = []float64{0, 1, 2} },
			"four layers":         func(c *config.Config) { c.LayerY = []float64{0, 1, 2, 3} },
			"zero smoothing":      func(c *config.Config) { c.Smoothing = 0 },
			"confidence above 1":  func(c *config.Config) { c.MinConfidence = 2 },
			"zero limit":          func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
		}

		for _, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})
}
