package interchange

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Model is the XML document holding a whole database: catalogs, the task
// forest and the ledger. Amounts are decimal unit strings ("2.50").
type Model struct {
	XMLName       xml.Name          `xml:"model"`
	Durations     []DurationXML     `xml:"durations>duration"`
	Collaborators []CollaboratorXML `xml:"collaborators>collaborator"`
	Tasks         []TaskXML         `xml:"tasks>task"`
	Contributions []ContributionXML `xml:"contributions>contribution"`
}

type DurationXML struct {
	Value  string `xml:"value,attr"`
	Active bool   `xml:"active,attr"`
}

type CollaboratorXML struct {
	Login     string `xml:"login,attr"`
	FirstName string `xml:"firstName,omitempty"`
	LastName  string `xml:"lastName,omitempty"`
	Active    bool   `xml:"active,attr"`
}

// TaskXML nests sub-tasks in document order, which is sibling order.
type TaskXML struct {
	Code              string    `xml:"code,attr"`
	Name              string    `xml:"name"`
	Comment           string    `xml:"comment,omitempty"`
	Budget            string    `xml:"budget,omitempty"`
	InitiallyConsumed string    `xml:"initiallyConsumed,omitempty"`
	Todo              string    `xml:"todo,omitempty"`
	Closed            bool      `xml:"closed,attr,omitempty"`
	Tasks             []TaskXML `xml:"task"`
}

// ContributionXML references its collaborator by login and its task by code
// path ("/A/B/C").
type ContributionXML struct {
	Login    string `xml:"login,attr"`
	Task     string `xml:"task,attr"`
	Date     string `xml:"date,attr"`
	Duration string `xml:"duration,attr"`
}

// ReadModel decodes a model document.
func ReadModel(r io.Reader) (*Model, error) {
	var m Model
	if err := xml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	return &m, nil
}

// LoadModel reads and parses a model file.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadModel(f)
}

// WriteModel encodes m as an indented document with an XML header.
func WriteModel(w io.Writer, m *Model) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
