// Package utils provides utility functions for the application.
package utils

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands a leading tilde in a path. Empty paths stay empty.
func ExpandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	s, err := homedir.Expand(path)
	if err == nil {
		path = s
	}
	return filepath.Clean(path)
}

// GlamourStyle returns a glamour option for the given style name. Names
// outside the default set are treated as paths to JSON style files.
func GlamourStyle(style string) glamour.TermRendererOption {
	if style == styles.AutoStyle {
		return glamour.WithAutoStyle()
	}
	if _, ok := styles.DefaultStyles[style]; ok {
		return glamour.WithStandardStyle(style)
	}
	return glamour.WithStylePath(ExpandPath(style))
}
