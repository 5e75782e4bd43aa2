// Package study reads the handful of fields the supervisor needs from a
// study configuration XML file.
package study

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoGeneralSettings is returned when the study has no general settings
// section.
var ErrNoGeneralSettings = errors.New("study has no general settings")

// Info describes a study.
type Info struct {
	Path             string `json:"path"`
	Name             string `json:"name"`
	WorkingDirectory string `json:"working_directory"`
	Dimension        int    `json:"dimension"`
	Objectives       int    `json:"objectives"`
	Constraints      int    `json:"constraints"`
}

// ObjectiveCount returns the number of objectives to analyze. A study
// without objective definitions is treated as single objective.
func (i Info) ObjectiveCount() int {
	if i.Objectives < 1 {
		return 1
	}
	return i.Objectives
}

// SameRunTarget reports whether both studies write into the same run
// directories.
func (i Info) SameRunTarget(other Info) bool {
	return i.Name == other.Name && i.WorkingDirectory == other.WorkingDirectory
}

type document struct {
	General     *general   `xml:"general_settings"`
	GeneralAlt  *general   `xml:"GeneralSettings"`
	Objectives  []struct{} `xml:"objective_function"`
	Constraints []struct{} `xml:"constraint_function"`
}

type general struct {
	Name          string `xml:"name"`
	NameAlt       string `xml:"Name"`
	WorkingDir    string `xml:"working_directory"`
	WorkingDirAlt string `xml:"Working_directory"`
	Dimension     string `xml:"dimension"`
	DimensionAlt  string `xml:"Dimension"`
}

// Load reads the study at path.
func Load(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read study: %w", err)
	}
	info, err := Parse(data)
	if err != nil {
		return Info{}, fmt.Errorf("parse study %s: %w", path, err)
	}
	info.Path = path
	if info.WorkingDirectory != "" && !filepath.IsAbs(info.WorkingDirectory) {
		info.WorkingDirectory = filepath.Join(filepath.Dir(path), info.WorkingDirectory)
	}
	return info, nil
}

// Parse decodes a study document. Lower-case element names take precedence
// over their capitalized alternatives. A dimension that is not a
// non-negative integer is reported as 0.
func Parse(data []byte) (Info, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Info{}, err
	}

	g := doc.General
	if g == nil {
		g = doc.GeneralAlt
	}
	if g == nil {
		return Info{}, ErrNoGeneralSettings
	}

	info := Info{
		Name:             firstNonEmpty(g.Name, g.NameAlt),
		WorkingDirectory: firstNonEmpty(g.WorkingDir, g.WorkingDirAlt),
		Objectives:       len(doc.Objectives),
		Constraints:      len(doc.Constraints),
	}
	if n, err := strconv.Atoi(firstNonEmpty(g.Dimension, g.DimensionAlt)); err == nil && n >= 0 {
		info.Dimension = n
	}
	return info, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
