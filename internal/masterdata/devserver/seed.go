package devserver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document the dev server starts from.
type Seed struct {
	Options    map[string][]Record `yaml:"options"`
	RunNumbers []string            `yaml:"run_numbers"`
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("reading seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document.
func ParseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parsing seed: %w", err)
	}
	return s, nil
}

const defaultSeed = `
options:
  hole_sections:
    - {id: hs-26, label: "26 in"}
    - {id: hs-17, label: "17 1/2 in"}
    - {id: hs-12, label: "12 1/4 in"}
  run_in_types:
    - {id: casing-26, label: Casing, parent: hs-26}
    - {id: casing-17, label: Casing, parent: hs-17}
    - {id: drillpipe-12, label: Drill pipe, parent: hs-12}
    - {id: tubing-12, label: Tubing, parent: hs-12}
  run_ins:
    - {id: csg-20, label: "20 in casing", parent: casing-26}
    - {id: csg-13, label: "13 3/8 in casing", parent: casing-17}
    - {id: dp-5, label: "5 in drill pipe", parent: drillpipe-12}
    - {id: tbg-3, label: "3 1/2 in tubing", parent: tubing-12}
  minimum_ids:
    - {id: id-18.73, label: "18.730 in", parent: csg-20}
    - {id: id-12.42, label: "12.415 in", parent: csg-13}
    - {id: id-4.28, label: "4.276 in", parent: dp-5}
    - {id: id-2.99, label: "2.992 in", parent: tbg-3}
  customers:
    - {id: northwind, label: Northwind Energy}
    - {id: basalt, label: Basalt Petroleum}
  wells:
    - {id: nw-101, label: NW-101, parent: northwind}
    - {id: nw-102, label: NW-102, parent: northwind}
    - {id: bp-7, label: BP-7H, parent: basalt}
  rigs:
    - {id: rig-4, label: Rig 4}
    - {id: rig-11, label: Rig 11}
  services:
    - {id: gyro, label: Gyro survey}
    - {id: mwd, label: MWD}
run_numbers:
  - R-1001
  - R-1002
`

// DefaultSeed is a small fixture covering every option source.
func DefaultSeed() Seed {
	s, err := ParseSeed([]byte(defaultSeed))
	if err != nil {
		panic(err)
	}
	return s
}
