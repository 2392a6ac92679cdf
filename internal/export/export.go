// Package export renders the entity catalog as CSV or XLSX.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/places-collector/internal/model"
)

// Format is a file export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Entities"

// Header is the column order of every export.
var Header = []string{
	"id", "name", "formatted_address", "city", "state", "zip_code",
	"latitude", "longitude", "phone", "website",
	"google_rating", "google_review_count", "yelp_rating", "yelp_review_count",
	"google_place_id", "yelp_id", "osm_id",
	"categories", "sources", "notes",
}

type cellKind int

const (
	kindString cellKind = iota
	kindFloat
	kindInt
)

type cell struct {
	kind cellKind
	s    string
	f    float64
	i    int
	set  bool
}

func str(s string) cell { return cell{kind: kindString, s: s, set: true} }

func float(p *float64) cell {
	if p == nil {
		return cell{kind: kindFloat}
	}
	return cell{kind: kindFloat, f: *p, set: true}
}

func integer(p *int) cell {
	if p == nil {
		return cell{kind: kindInt}
	}
	return cell{kind: kindInt, i: *p, set: true}
}

func (c cell) String() string {
	if !c.set {
		return ""
	}
	switch c.kind {
	case kindFloat:
		return strconv.FormatFloat(c.f, 'f', -1, 64)
	case kindInt:
		return strconv.Itoa(c.i)
	default:
		return c.s
	}
}

func cells(e model.Entity) []cell {
	g := e.Ratings[model.SourceGoogle]
	y := e.Ratings[model.SourceYelp]
	return []cell{
		str(e.ID), str(e.Name), str(e.FormattedAddress), str(e.City), str(e.State), str(e.ZipCode),
		float(e.Latitude), float(e.Longitude), str(e.Phone), str(e.Website),
		float(g.Value), integer(g.Count), float(y.Value), integer(y.Count),
		str(e.ProviderIDs[model.SourceGoogle]), str(e.ProviderIDs[model.SourceYelp]), str(e.ProviderIDs[model.SourceOSM]),
		str(strings.Join(e.Categories, "; ")), str(strings.Join(e.Sources, "; ")), str(e.Notes),
	}
}

// Row renders e in Header order.
func Row(e model.Entity) []string {
	cs := cells(e)
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// WriteCSV writes a header row followed by one row per entity.
func WriteCSV(w io.Writer, entities []model.Entity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, e := range entities {
		if err := cw.Write(Row(e)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", e.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes one worksheet with a header row and typed numeric cells.
func WriteXLSX(w io.Writer, entities []model.Entity) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}
	for _, e := range entities {
		row := sheet.AddRow()
		for _, c := range cells(e) {
			xc := row.AddCell()
			switch {
			case !c.set:
				xc.SetString("")
			case c.kind == kindFloat:
				xc.SetFloat(c.f)
			case c.kind == kindInt:
				xc.SetInt(c.i)
			default:
				xc.SetString(c.s)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// WriteFile writes entities to path in the given format.
func WriteFile(path string, format Format, entities []model.Entity) error {
	var write func(io.Writer, []model.Entity) error
	switch format {
	case FormatCSV:
		write = WriteCSV
	case FormatXLSX:
		write = WriteXLSX
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}

	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := write(f, entities); err != nil {
		f.Close() //nolint:errcheck,gosec
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
