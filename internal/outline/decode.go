package outline

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a heading stream.
// YAML is a superset of JSON, so both encodings decode through it.
type File struct {
	// EndPage is the last page of the document. Zero means unknown.
	EndPage int `yaml:"end_page"`

	// Headings are the observations in scan order.
	Headings []Observation `yaml:"headings"`
}

// Decode reads a heading stream from r.
// The input is either a File document or a bare list of observations.
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read headings: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse headings: %w", err)
	}
	if len(node.Content) == 0 {
		return &File{}, nil
	}

	var file File
	if node.Content[0].Kind == yaml.SequenceNode {
		if err := node.Content[0].Decode(&file.Headings); err != nil {
			return nil, fmt.Errorf("failed to decode headings: %w", err)
		}
	} else if err := node.Content[0].Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode headings: %w", err)
	}

	if file.EndPage == 0 {
		file.EndPage = lastStartPage(file.Headings)
	}
	return &file, nil
}

// lastStartPage is the fallback end page when a file does not declare one.
func lastStartPage(observations []Observation) int {
	last := 1
	for _, obs := range observations {
		if obs.StartPage > last {
			last = obs.StartPage
		}
	}
	return last
}
