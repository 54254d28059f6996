// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package geo maps coordinates onto hexagonal grid cells.
//
// Reviews are tagged with the H3 cell that contains them so that nearby
// venues can be grouped without a spatial index in the store.
package geo

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/bares/core"
	"github.com/uber/h3-go/v4"
)

// Resolution is the H3 resolution used for review hex indexes.
// Cells at resolution 7 cover roughly 5 square kilometers.
const Resolution = 7

const maxResolution = 15

var (
	// ErrInvalidCoordinates is returned for coordinates that cannot be indexed.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidResolution is returned for resolutions outside 0..15.
	ErrInvalidResolution = errors.New("invalid h3 resolution")
)

// Indexer computes the hex cell id for a coordinate pair.
type Indexer interface {
	HexIndex(lat, lon float64, resolution int) (string, error)
}

// H3 implements Indexer with Uber's H3 grid.
type H3 struct{}

var _ Indexer = H3{}

// HexIndex returns the H3 cell containing lat/lon as a hex string.
func (H3) HexIndex(lat, lon float64, resolution int) (string, error) {
	if resolution < 0 || resolution > maxResolution {
		return "", fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) ||
		lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinates, lat, lon)
	}

	cell := h3.LatLngToCell(h3.NewLatLng(lat, lon), resolution)
	if !cell.IsValid() {
		return "", fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinates, lat, lon)
	}
	return cell.String(), nil
}

// ReviewHexIndex indexes a review's coordinates at Resolution.
// Reviews without coordinates return "", nil.
func ReviewHexIndex(indexer Indexer, r *core.Review) (string, error) {
	if !r.HasCoordinates() {
		return "", nil
	}
	return indexer.HexIndex(*r.Lat, *r.Lon, Resolution)
}

// Cell is a group of reviews sharing a hex index.
type Cell struct {
	HexIndex string
	Reviews  []*core.Review
}

// GroupByCell groups reviews by hex index, skipping reviews without one.
// Cells are ordered by descending size, then by hex index.
func GroupByCell(reviews []*core.Review) []Cell {
	byIndex := make(map[string][]*core.Review)
	for _, r := range reviews {
		if r.HexIndex == "" {
			continue
		}
		byIndex[r.HexIndex] = append(byIndex[r.HexIndex], r)
	}

	cells := make([]Cell, 0, len(byIndex))
	for idx, members := range byIndex {
		cells = append(cells, Cell{HexIndex: idx, Reviews: members})
	}
	slices.SortFunc(cells, func(a, b Cell) int {
		if len(a.Reviews) != len(b.Reviews) {
			return len(b.Reviews) - len(a.Reviews)
		}
		if a.HexIndex < b.HexIndex {
			return -1
		}
		if a.HexIndex > b.HexIndex {
			return 1
		}
		return 0
	})
	return cells
}
