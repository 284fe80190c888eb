// Package chartfile loads charts from YAML files.
//
//	id: intro
//	title: Intro
//	targets:
//	  - {id: n1, time: 2.0, lane: 1, layer: 0, hand: left, direction: up}
//	  - {id: n2, time: 2.5, lane: 2, layer: 1, hand: right}
//
// The loader is the only place charts are validated; the gameplay core
// trusts what it is given.
package chartfile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/handbeat/internal/domain/model"
)

// Sentinel kinds for chart errors.
var (
	ErrInvalidChart = errors.New("invalid chart")
)

type targetDoc struct {
	ID        string  `koanf:"id"`
	Time      float64 `koanf:"time"`
	Lane      int     `koanf:"lane"`
	Layer     int     `koanf:"layer"`
	Hand      string  `koanf:"hand"`
	Direction string  `koanf:"direction"`
}

type chartDoc struct {
	ID      string      `koanf:"id"`
	Title   string      `koanf:"title"`
	Targets []targetDoc `koanf:"targets"`
}

// Load reads and validates the chart at path.
func Load(ctx context.Context, path string) (*model.Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidChart, path, err)
	}

	var doc chartDoc
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidChart, path, err)
	}

	chart, err := build(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return chart, nil
}

// build validates doc and returns the chart with targets in ascending
// arrival order. Targets sharing an arrival time keep their file order.
func build(doc chartDoc) (*model.Chart, error) { //nolint:gocritic // hugeParam
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidChart)
	}

	seen := make(map[string]struct{}, len(doc.Targets))
	targets := make([]model.Target, 0, len(doc.Targets))
	for i, td := range doc.Targets {
		t, err := target(td)
		if err != nil {
			return nil, fmt.Errorf("%w: target %d (%q): %w", ErrInvalidChart, i, td.ID, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate target id %q", ErrInvalidChart, t.ID)
		}
		seen[t.ID] = struct{}{}
		targets = append(targets, t)
	}

	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].ArrivalTime < targets[j].ArrivalTime
	})

	return &model.Chart{ID: doc.ID, Title: doc.Title, Targets: targets}, nil
}

func target(td targetDoc) (model.Target, error) {
	switch {
	case td.ID == "":
		return model.Target{}, errors.New("missing id")
	case math.IsNaN(td.Time) || math.IsInf(td.Time, 0) || td.Time < 0:
		return model.Target{}, fmt.Errorf("time %v out of range", td.Time)
	case td.Lane < 0 || td.Lane >= model.LaneCount:
		return model.Target{}, fmt.Errorf("lane %d outside 0..%d", td.Lane, model.LaneCount-1)
	case td.Layer < 0 || td.Layer >= model.LayerCount:
		return model.Target{}, fmt.Errorf("layer %d outside 0..%d", td.Layer, model.LayerCount-1)
	}

	hand, err := model.ParseHand(td.Hand)
	if err != nil {
		return model.Target{}, err
	}
	dir, err := model.ParseDirection(td.Direction)
	if err != nil {
		return model.Target{}, err
	}

	return model.Target{
		ID:          td.ID,
		ArrivalTime: td.Time,
		Lane:        td.Lane,
		Layer:       td.Layer,
		Hand:        hand,
		Direction:   dir,
	}, nil
}
