package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Input is the actor input. Only the ranking year is read.
type Input struct {
	Year int `yaml:"year" json:"year"`
}

// LoadInput reads the input file. JSON is valid YAML, so INPUT.json and
// INPUT.yaml are both accepted.
func LoadInput(path string) (Input, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("read input %s: %w", path, err)
	}
	var in Input
	if err := yaml.Unmarshal(b, &in); err != nil {
		return Input{}, fmt.Errorf("parse input %s: %w", path, err)
	}
	if in.Year <= 0 {
		return Input{}, fmt.Errorf("input %s: year must be a positive integer", path)
	}
	return in, nil
}
