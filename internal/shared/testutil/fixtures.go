package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// HousingHeader is the column layout of the housing census table
var HousingHeader = []string{
	"longitude", "latitude", "housing_median_age", "total_rooms", "total_bedrooms",
	"population", "households", "median_income", "median_house_value", "ocean_proximity",
}

// HousingRow is one census block in test fixtures
type HousingRow struct {
	Longitude, Latitude float64
	Age                 float64
	Rooms, Bedrooms     float64
	Population          float64
	Households          float64
	Income              float64
	Value               float64
	Proximity           string
}

// ValidHousingRow returns a block that survives every cleaning rule.
// Vary i to get distinct rows.
func ValidHousingRow(i int) HousingRow {
	return HousingRow{
		Longitude:  -122.0 - float64(i)/100,
		Latitude:   37.5 + float64(i)/100,
		Age:        20 + float64(i%10),
		Rooms:      1000 + float64(i*10),
		Bedrooms:   200 + float64(i),
		Population: 500 + float64(i*5),
		Households: 150 + float64(i),
		Income:     3.5 + float64(i)/10,
		Value:      200000 + float64(i*1000),
		Proximity:  "NEAR BAY",
	}
}

func (r HousingRow) record() []string {
	f := func(v float64) string { return fmt.Sprintf("%g", v) }
	return []string{
		f(r.Longitude), f(r.Latitude), f(r.Age), f(r.Rooms), f(r.Bedrooms),
		f(r.Population), f(r.Households), f(r.Income), f(r.Value), r.Proximity,
	}
}

// HousingCSV renders rows as CSV text with the housing header
func HousingCSV(rows ...HousingRow) string {
	var b strings.Builder
	b.WriteString(strings.Join(HousingHeader, ","))
	b.WriteString("\n")
	for _, r := range rows {
		rec := r.record()
		for i, v := range rec {
			if strings.ContainsAny(v, ", ") {
				rec[i] = `"` + v + `"`
			}
		}
		b.WriteString(strings.Join(rec, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFile writes content under dir and returns the full path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ArchiveEntry is one member of an in-memory test archive
type ArchiveEntry struct {
	Name    string
	Content string
	Dir     bool
	Symlink string
}

// BuildZip builds a zip archive in memory
func BuildZip(t *testing.T, entries ...ArchiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		name := e.Name
		if e.Dir && !strings.HasSuffix(name, "/") {
			name += "/"
		}
		w, err := zw.Create(name)
		require.NoError(t, err)
		if !e.Dir {
			_, err = w.Write([]byte(e.Content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// BuildTarGz builds a gzip-compressed tar archive in memory
func BuildTarGz(t *testing.T, entries ...ArchiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0644}
		switch {
		case e.Dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		case e.Symlink != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Symlink
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Content))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.Content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}
