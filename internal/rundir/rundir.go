// Package rundir locates the directory an optimizer run writes into and the
// status files inside it.
package rundir

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Prefix is prepended to the study name to form run directory names.
const Prefix = "run-"

// Resolve returns the most recently modified subdirectory of workDir whose
// name starts with "run-"+study. A directory modified before notBefore
// belongs to an earlier run and is never returned. A missing workDir is
// not an error: it simply resolves to nothing.
func Resolve(workDir, study string, notBefore time.Time) (string, bool) {
	if workDir == "" || study == "" {
		return "", false
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		return "", false
	}

	prefix := Prefix + study
	var (
		newest    string
		newestMod time.Time
	)
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(workDir, entry.Name())
		// Stat follows symlinks so linked run directories count too.
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
	}

	if newest == "" || newestMod.Before(notBefore) {
		return "", false
	}
	return newest, true
}

// LatestFile returns the most recently modified regular file in dir whose
// name ends with suffix.
func LatestFile(dir, suffix string) (string, bool) {
	if dir == "" {
		return "", false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var (
		newest    string
		newestMod time.Time
	)
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	return newest, newest != ""
}
