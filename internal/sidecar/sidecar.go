// Package sidecar renders metadata records as Kodi-compatible NFO documents.
package sidecar

import (
	"encoding/xml"
	"fmt"
	"io"

	"javtidy/internal/record"
)

// movie mirrors the Kodi NFO schema. Field order fixes the emission order;
// optional fields carry omitempty so blanks disappear instead of rendering as
// empty elements.
type movie struct {
	XMLName       xml.Name   `xml:"movie"`
	Title         string     `xml:"title"`
	OriginalTitle string     `xml:"originaltitle,omitempty"`
	Year          string     `xml:"year,omitempty"`
	Plot          string     `xml:"plot,omitempty"`
	Studio        string     `xml:"studio,omitempty"`
	Director      string     `xml:"director,omitempty"`
	Set           string     `xml:"set,omitempty"`
	Genres        []string   `xml:"genre,omitempty"`
	Actors        []actor    `xml:"actor,omitempty"`
	Thumb         string     `xml:"thumb,omitempty"`
	Fanart        *fanart    `xml:"fanart,omitempty"`
	UniqueID      []uniqueID `xml:"uniqueid"`
}

// fanart wraps the preview image list; a nil pointer leaves the element out.
type fanart struct {
	Thumbs []string `xml:"thumb"`
}

type actor struct {
	Name string `xml:"name"`
	Role string `xml:"role,omitempty"`
}

type uniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Write renders rec as indented UTF-8 XML.
func Write(w io.Writer, rec *record.Record) error {
	m := movie{
		Title:         rec.Title,
		OriginalTitle: rec.OriginalTitle,
		Year:          rec.Year,
		Plot:          rec.Plot,
		Studio:        rec.Studio,
		Director:      rec.Director,
		Set:           rec.Series,
		Genres:        rec.Genres,
		Thumb:         rec.CoverURL,
		UniqueID:      []uniqueID{{Type: "catalog", Default: true, Value: rec.ID}},
	}
	if len(rec.PreviewURLs) > 0 {
		m.Fanart = &fanart{Thumbs: rec.PreviewURLs}
	}
	for _, a := range rec.Actors {
		m.Actors = append(m.Actors, actor{Name: a.Name, Role: a.Role})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("sidecar: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("sidecar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("sidecar: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
