// Package rendering produces export documents from the project dataset.
package rendering

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/renewable-watch/internal/types"
)

// kmlNamespace is the OGC KML 2.2 schema.
const kmlNamespace = "http://www.opengis.net/kml/2.2"

// DocumentName titles the generated KML document.
const DocumentName = "Renewable Energy Projects of Bangladesh"

// kmlRoot mirrors the KML document structure for encoding/xml.
type kmlRoot struct {
	XMLName   xml.Name    `xml:"kml"`
	Namespace string      `xml:"xmlns,attr"`
	Document  kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	ID          string   `xml:"id,attr"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Point       kmlPoint `xml:"Point"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

// RenderKML renders every record with usable coordinates as a KML Placemark.
// Records without coordinates cannot be placed on a map and are skipped.
func RenderKML(records []types.ProjectRecord) (string, error) {
	doc := kmlRoot{
		Namespace: kmlNamespace,
		Document: kmlDocument{
			Name:       DocumentName,
			Placemarks: make([]kmlPlacemark, 0, len(records)),
		},
	}

	for i := range records {
		record := &records[i]
		if !record.HasCoordinates() {
			continue
		}

		doc.Document.Placemarks = append(doc.Document.Placemarks, kmlPlacemark{
			ID:          strconv.Itoa(record.ID),
			Name:        record.Name,
			Description: placemarkDescription(record),
			Point:       kmlPoint{Coordinates: kmlCoordinates(*record.Latitude, *record.Longitude)},
		})
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", &RenderError{Message: "failed to marshal KML", Cause: err}
	}

	return xml.Header + string(body) + "\n", nil
}

// WriteKML renders records and writes the document to path.
func WriteKML(path string, records []types.ProjectRecord) error {
	content, err := RenderKML(records)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &RenderError{Message: "failed to create export directory", Cause: err}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &RenderError{Message: "failed to write KML file", Cause: err}
	}
	return nil
}

// kmlCoordinates formats a coordinate pair in KML's longitude-first order.
func kmlCoordinates(lat, lon float64) string {
	return strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
}

// placemarkDescription summarizes a project for the placemark balloon.
// Empty fields are left out rather than rendered as blank lines.
func placemarkDescription(p *types.ProjectRecord) string {
	capacity := p.CapacityDC
	if capacity == "" {
		capacity = p.CapacityAC
	}

	var lines []string
	for _, field := range []struct {
		label string
		value string
	}{
		{"Technology", p.Technology},
		{"Capacity", capacity},
		{"Agency", p.Agency},
		{"Status", p.Status},
	} {
		if field.value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", field.label, field.value))
		}
	}

	return strings.Join(lines, "\n")
}
