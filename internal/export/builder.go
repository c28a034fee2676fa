package export

import (
	"strconv"
	"time"

	"laporan/internal/model"
)

// Entry is one report plus its optional thumbnail. A nil Image means the photo is absent.
type Entry struct {
	Report model.Report
	Image  []byte
}

// Builder assembles a complete document from entries in the given order.
type Builder interface {
	Build(entries []Entry) ([]byte, error)
}

type field struct {
	label string
	width float64
}

// fields is the fixed column order shared by every builder.
var fields = []field{
	{"No", 5},
	{"Foto", 30},
	{"Gardu", 10},
	{"Kerusakan", 30},
	{"Waktu Kerusakan", 20},
	{"Perbaikan", 30},
	{"Waktu Selesai", 20},
	{"Status", 15},
	{"By", 15},
	{"Tanggal Upload", 25},
}

const photoColumn = 1

// values renders the fields of the n-th (1-based) report in fields order.
func values(n int, r model.Report, loc *time.Location) []string {
	return []string{
		strconv.Itoa(n),
		r.PhotoURL,
		r.Substation,
		r.Fault,
		model.FormatTime(r.FaultAt, loc),
		r.Repair,
		model.FormatTime(r.ResolvedAt, loc),
		string(r.Status),
		r.Author,
		model.FormatTime(r.UploadedAt, loc),
	}
}
