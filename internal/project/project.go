package project

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// Project holds the attributes extracted for one PROJIS project. The first
// five fields come from the project's row on the listing page; the rest come
// from the project's detail page. DetailURL is navigation state, not a column.
type Project struct {
	ProjNum    string
	ProjDesc   string
	Towns      string
	ProjType   string
	ProjStatus string
	TIPYear    string

	LongDesc         string
	ConBegins        string
	ConEnds          string
	ResEngr          string
	MHDDistrict      string
	CurStatus        string
	DesignResp       string
	ROWResp          string
	ROWCertIssued    string
	EstConCost       string
	DatePRCApproved  string
	Date25Submitted  string
	Date75Submitted  string
	Date100Submitted string
	DatePSESubmitted string
	Bridges          string

	DetailURL string
}

// Columns is the dump-file header, in output order. Every record's Row
// follows this order exactly.
var Columns = []string{
	"PROJ_NUM",
	"PROJ_DESC",
	"TOWNS",
	"PROJ_TYPE",
	"PROJ_STATUS",
	"PROJ_TIP_YEAR",
	"LONG_DESC",
	"CON_BEGINS",
	"CON_ENDS",
	"RES_ENGR",
	"MHD_DIST",
	"CUR_STATUS",
	"DES_RESP",
	"ROW_RESP",
	"ROW_CERT_ISSUED",
	"EST_CON_COST",
	"DATE_PRC_APPROVED",
	"DATE_25_SUBMITTED",
	"DATE_75_SUBMITTED",
	"DATE_100_SUBMITTED",
	"DATE_PSE_SUBMITTED",
	"BRIDGES",
}

// Row returns the record's values in Columns order.
func (p *Project) Row() []string {
	return []string{
		p.ProjNum,
		p.ProjDesc,
		p.Towns,
		p.ProjType,
		p.ProjStatus,
		p.TIPYear,
		p.LongDesc,
		p.ConBegins,
		p.ConEnds,
		p.ResEngr,
		p.MHDDistrict,
		p.CurStatus,
		p.DesignResp,
		p.ROWResp,
		p.ROWCertIssued,
		p.EstConCost,
		p.DatePRCApproved,
		p.Date25Submitted,
		p.Date75Submitted,
		p.Date100Submitted,
		p.DatePSESubmitted,
		p.Bridges,
	}
}

// ClearDetails blanks every column sourced from the detail page, leaving the
// listing-page columns intact. Used when a detail page cannot be processed.
func (p *Project) ClearDetails() {
	p.Towns = ""
	p.LongDesc = ""
	p.ConBegins = ""
	p.ConEnds = ""
	p.ResEngr = ""
	p.MHDDistrict = ""
	p.CurStatus = ""
	p.DesignResp = ""
	p.ROWResp = ""
	p.ROWCertIssued = ""
	p.EstConCost = ""
	p.DatePRCApproved = ""
	p.Date25Submitted = ""
	p.Date75Submitted = ""
	p.Date100Submitted = ""
	p.DatePSESubmitted = ""
	p.Bridges = ""
}

// Clean normalizes a field value pulled out of markup: entities are decoded,
// CR/LF become spaces, and surrounding whitespace is trimmed. The PROJIS
// pages embed raw newlines and the occasional escaped ampersand inside
// attribute values.
func Clean(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// PadNumber formats a PROJIS project number as a 6-digit string with leading
// zeros. Values that are not plain integers are returned cleaned but
// unpadded.
func PadNumber(s string) string {
	s = Clean(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%06d", n)
}
