// Package instance reads problem instances from JSON or YAML files.
//
// An instance lists the depot and customers with their demand and planar
// coordinates. When no explicit cost matrix is given the cost between two
// locations is their Euclidean distance.
package instance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/vrpls/internal/vrp"
)

// Format identifies an instance encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for encodings other than JSON and YAML.
var ErrUnsupportedFormat = errors.New("unsupported instance format")

// Spec is the on-disk form of a problem.
type Spec struct {
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Depot     int            `json:"depot" yaml:"depot"`
	Vehicles  *FleetSpec     `json:"vehicles,omitempty" yaml:"vehicles,omitempty"`
	Fleet     []vrp.Vehicle  `json:"fleet,omitempty" yaml:"fleet,omitempty"`
	Locations []LocationSpec `json:"locations" yaml:"locations"`
	Costs     [][]float64    `json:"costs,omitempty" yaml:"costs,omitempty"`
}

// FleetSpec describes count identical vehicles.
type FleetSpec struct {
	Count    int     `json:"count" yaml:"count"`
	Capacity float64 `json:"capacity" yaml:"capacity"`
}

// LocationSpec is one location. Its id is its position in the list.
type LocationSpec struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Demand float64 `json:"demand" yaml:"demand"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
}

// FormatOf guesses the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%q: %w", path, ErrUnsupportedFormat)
	}
}

// LoadFile reads and decodes the instance at path.
func LoadFile(path string) (*vrp.Problem, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}
	defer f.Close()

	p, err := Decode(f, format)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Decode reads a Spec in the given format and converts it into a problem.
// The problem is not validated.
func Decode(r io.Reader, format Format) (*vrp.Problem, error) {
	var spec Spec
	switch format {
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("load instance: decode json: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("load instance: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("load instance: %q: %w", format, ErrUnsupportedFormat)
	}
	return FromSpec(spec)
}

// FromSpec builds a problem from its on-disk form.
func FromSpec(spec Spec) (*vrp.Problem, error) {
	p := &vrp.Problem{
		Name:      spec.Name,
		Depot:     spec.Depot,
		Locations: make([]vrp.Location, len(spec.Locations)),
	}
	for i, l := range spec.Locations {
		p.Locations[i] = vrp.Location{ID: i, Name: l.Name, Demand: l.Demand, X: l.X, Y: l.Y}
	}

	switch {
	case spec.Vehicles != nil && len(spec.Fleet) > 0:
		return nil, errors.New("load instance: vehicles and fleet are mutually exclusive")
	case spec.Vehicles != nil && spec.Vehicles.Count < 0:
		return nil, fmt.Errorf("load instance: vehicle count %d is negative", spec.Vehicles.Count)
	case spec.Vehicles != nil:
		p.Vehicles = vrp.NewHomogeneousFleet(spec.Vehicles.Count, spec.Vehicles.Capacity)
	default:
		p.Vehicles = append([]vrp.Vehicle(nil), spec.Fleet...)
		for i := range p.Vehicles {
			if p.Vehicles[i].ID == "" {
				p.Vehicles[i].ID = fmt.Sprintf("v%d", i)
			}
		}
	}

	rows := spec.Costs
	if rows == nil {
		rows = Euclidean(p.Locations)
	}
	if len(rows) > 0 {
		costs, err := vrp.NewCostMatrix(rows)
		if err != nil {
			return nil, fmt.Errorf("load instance: costs: %w", err)
		}
		p.Costs = costs
	}
	return p, nil
}

// Euclidean returns the pairwise straight-line distances between locations.
func Euclidean(locs []vrp.Location) [][]float64 {
	rows := make([][]float64, len(locs))
	for i, a := range locs {
		rows[i] = make([]float64, len(locs))
		for j, b := range locs {
			if i != j {
				rows[i][j] = floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
			}
		}
	}
	return rows
}

// ToSpec converts a problem back into its on-disk form with an explicit
// cost matrix.
func ToSpec(p *vrp.Problem) Spec {
	spec := Spec{
		Name:      p.Name,
		Depot:     p.Depot,
		Fleet:     append([]vrp.Vehicle(nil), p.Vehicles...),
		Locations: make([]LocationSpec, len(p.Locations)),
	}
	for i, l := range p.Locations {
		spec.Locations[i] = LocationSpec{Name: l.Name, Demand: l.Demand, X: l.X, Y: l.Y}
	}
	if p.Costs != nil {
		spec.Costs = p.Costs.Rows()
	}
	return spec
}
