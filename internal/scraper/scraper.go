package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ctps/projis-dump/internal/logger"
	"github.com/ctps/projis-dump/internal/project"
)

const (
	// BaseURL anchors relative project links found on the listing page.
	BaseURL = "http://www.mhd.state.ma.us/ProjectInfo/"

	// DefaultListingURL is the PROJIS project list for the Boston MPO area.
	DefaultListingURL = "http://www.mhd.state.ma.us/ProjectInfo/Main.asp?ACTION=ProjectList&MPO=Boston"

	UserAgent = "projis-dump/1.0 (github.com/ctps/projis-dump)"
	Timeout   = 30 * time.Second
)

// ErrUnparsable reports input that cannot be treated as markup at all.
// Malformed markup is not unparsable; only empty, binary, or tag-free input
// is rejected.
var ErrUnparsable = errors.New("input is not HTML markup")

// Milestone cells on the project detail page are identified by their tooltip
// text. The PS&E milestone's tooltip contains a comma, so that one is located
// by its label text instead (see datePSESubmitted).
const (
	titlePRCApproved  = "Approved"
	title25Submitted  = "The 25% project plan has been submitted to MassHighway for review and comment."
	title75Submitted  = "The 75% project plan has been submitted to MassHighway for review and comment."
	title100Submitted = "The final project plan has been submitted to MassHighway for review and comment."
)

// Scraper fetches PROJIS pages over HTTP. Parsing is handled by the
// package-level ParseListing and ParseDetail functions, which the Scraper
// applies to fetched pages.
type Scraper struct {
	client *http.Client
}

// New creates a new Scraper instance.
func New() *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
	}
}

// FetchListing retrieves the raw markup of the project listing page.
func (s *Scraper) FetchListing(listingURL string) ([]byte, error) {
	return s.get(listingURL)
}

// FetchDetails fills in the detail-page columns for each project that
// carries a detail link. A project whose detail page cannot be fetched or
// read keeps its listing columns and blank detail columns; one bad detail
// page never aborts the run. Returns the number of projects whose details
// could not be extracted.
func (s *Scraper) FetchDetails(projects []*project.Project) int {
	failed := 0
	for _, p := range projects {
		if p.DetailURL == "" {
			continue
		}
		logger.Debug("processing project", logger.Fields{"project": p.ProjNum})
		if err := s.fetchDetail(p); err != nil {
			logger.Warn("detail page unavailable", logger.Fields{"project": p.ProjNum}, err)
			p.ClearDetails()
			failed++
		}
	}
	return failed
}

func (s *Scraper) fetchDetail(p *project.Project) error {
	detailURL, err := s.detailURL(p.DetailURL)
	if err != nil {
		return err
	}
	body, err := s.get(detailURL)
	if err != nil {
		return err
	}
	return ParseDetail(bytes.NewReader(body), p)
}

// detailURL resolves a detail link from the listing page. The links are
// normally absolute; relative ones are resolved against BaseURL.
func (s *Scraper) detailURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing detail URL: %w", err)
	}
	if u.IsAbs() {
		return raw, nil
	}
	base, err := url.Parse(BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	return base.ResolveReference(u).String(), nil
}

func (s *Scraper) get(rawURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// ParseListing extracts one Project per record block on the listing page.
// A record block is the table row holding a td.prjProjectNumber cell; the
// row's cells map positionally to project number (with the detail link),
// description, type, status, and TIP year. Markup with no record blocks
// yields an empty slice, not an error. Cells missing from a block yield
// empty column values for that record.
func ParseListing(r io.Reader) ([]*project.Project, error) {
	doc, err := parseDocument(r)
	if err != nil {
		return nil, err
	}

	projects := make([]*project.Project, 0)
	doc.Find("td.prjProjectNumber").Each(func(_ int, td *goquery.Selection) {
		cells := td.Parent().Children()

		p := &project.Project{}
		if link := td.Find("a").First(); link.Length() > 0 {
			p.ProjNum = project.PadNumber(link.Text())
			p.DetailURL, _ = link.Attr("href")
		} else {
			p.ProjNum = project.PadNumber(td.Text())
		}
		p.ProjDesc = project.Clean(cells.Eq(1).Text())
		p.ProjType = project.Clean(cells.Eq(2).Text())
		p.ProjStatus = project.Clean(cells.Eq(3).Text())
		p.TIPYear = project.Clean(cells.Eq(4).Text())

		projects = append(projects, p)
	})

	return projects, nil
}

// ParseDetail extracts the detail-page columns into p. A field whose markup
// is absent or not shaped as expected stays an empty string; the only error
// is ErrUnparsable for non-markup input.
func ParseDetail(r io.Reader, p *project.Project) error {
	doc, err := parseDocument(r)
	if err != nil {
		return err
	}

	p.Towns = parseTowns(doc)
	p.LongDesc = project.Clean(attrValue(doc, "PROJ_DESC"))
	p.ConBegins = project.Clean(attrValue(doc, "CON_BEGINS"))
	p.ConEnds = project.Clean(attrValue(doc, "CON_ENDS"))
	p.ResEngr = parseResidentEngineer(doc)
	p.MHDDistrict = project.Clean(attrValue(doc, "MHD_DIST"))
	p.CurStatus = project.Clean(attrValue(doc, "CUR_STATUS"))
	p.DesignResp = project.Clean(attrValue(doc, "DES_RESP"))
	p.ROWResp = project.Clean(attrValue(doc, "RIGHT_OF_WAY"))
	p.ROWCertIssued = parseROWCertDate(doc)
	p.EstConCost = parseConstructionCost(doc)
	p.DatePRCApproved = milestoneDate(doc, titlePRCApproved)
	p.Date25Submitted = milestoneDate(doc, title25Submitted)
	p.Date75Submitted = milestoneDate(doc, title75Submitted)
	p.Date100Submitted = milestoneDate(doc, title100Submitted)
	p.DatePSESubmitted = datePSESubmitted(doc)
	p.Bridges = parseBridges(doc)

	return nil
}

// parseDocument builds a lenient document tree from r. The tree builder
// recovers from unclosed and misnested tags, so the only failures are
// non-markup input (checkMarkup) and read errors.
func parseDocument(r io.Reader) (*goquery.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if err := checkMarkup(data); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// checkMarkup rejects input that cannot be treated as markup at all: empty
// input, non-text (invalid UTF-8) input, or text with no tags. The tree
// builder itself accepts anything, so this is the only hard failure mode.
func checkMarkup(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty input", ErrUnparsable)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: input is not valid text", ErrUnparsable)
	}
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return fmt.Errorf("%w: no tags found", ErrUnparsable)
		case html.StartTagToken, html.SelfClosingTagToken:
			return nil
		}
	}
}

// attrValue returns the text of the value cell paired with the td of the
// given id. On the detail page each labeled attribute is a td.attrName with
// an id, followed by a td.attrValue in the same row.
func attrValue(doc *goquery.Document, id string) string {
	sel := doc.Find("td#" + id)
	if sel.Length() == 0 {
		return ""
	}
	return sel.First().Next().Text()
}

// parseTowns extracts the "Jurisdiction(s) for this Project" list. The
// source markup places bare <li> elements directly inside the value cell
// with no enclosing <ul>; the lenient tree builder still produces li nodes
// for them, so they can be selected normally.
func parseTowns(doc *goquery.Document) string {
	loc := doc.Find("td#LOC")
	if loc.Length() == 0 {
		return ""
	}
	var towns []string
	loc.First().Next().Find("li").Each(func(_ int, li *goquery.Selection) {
		town := project.Clean(li.Text())
		town = strings.TrimPrefix(town, "City of ")
		town = strings.TrimPrefix(town, "Town of ")
		if town != "" {
			towns = append(towns, town)
		}
	})
	return strings.Join(towns, " ")
}

// parseResidentEngineer strips embedded commas so names like
// "John Doe, III" stay in one column.
func parseResidentEngineer(doc *goquery.Document) string {
	name := project.Clean(strings.ReplaceAll(attrValue(doc, "RES_ENGR"), ",", " "))
	return strings.Join(strings.Fields(name), " ")
}

// parseConstructionCost returns the estimated construction cost as a bare
// number: no dollar sign, no thousands separators.
func parseConstructionCost(doc *goquery.Document) string {
	cost := project.Clean(attrValue(doc, "EST_CON_COST"))
	cost = strings.ReplaceAll(cost, "$", "")
	return strings.ReplaceAll(cost, ",", "")
}

// parseROWCertDate extracts the Right of Way certification date. The value
// has no id or title of its own; it lives in the third cell of the second
// row of the table headed by the "Right of Way" section header, and is
// often absent even when the header is present.
func parseROWCertDate(doc *goquery.Document) string {
	var date string
	doc.Find("th.sectionHeader2").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if project.Clean(th.Text()) != "Right of Way" {
			return true
		}
		rows := th.Parent().Parent().Children()
		date = project.Clean(rows.Eq(1).Children().Eq(2).Text())
		return false
	})
	return date
}

// milestoneDate returns the date cell paired with the td carrying the given
// tooltip title.
func milestoneDate(doc *goquery.Document, title string) string {
	sel := doc.Find(`td[title="` + title + `"]`)
	if sel.Length() == 0 {
		return ""
	}
	return project.Clean(sel.First().Next().Text())
}

// datePSESubmitted locates the PS&E milestone by its label text. Its tooltip
// title ("Plans, Specifications and Estimate have been received for final
// review") contains a comma, so the label is the more robust anchor.
func datePSESubmitted(doc *goquery.Document) string {
	var date string
	doc.Find("td.attrName").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if project.Clean(td.Text()) != "PS&E Received" {
			return true
		}
		date = project.Clean(td.Next().Text())
		return false
	})
	return date
}

// parseBridges joins the bridge numbers listed under the "Bridges" heading.
// A project may have none; the heading is absent in that case.
func parseBridges(doc *goquery.Document) string {
	var bridges []string
	doc.Find("h4").EachWithBreak(func(_ int, h4 *goquery.Selection) bool {
		if project.Clean(h4.Text()) != "Bridges" {
			return true
		}
		h4.Next().Find("li").Each(func(_ int, li *goquery.Selection) {
			if num := project.Clean(li.Text()); num != "" {
				bridges = append(bridges, num)
			}
		})
		return false
	})
	return strings.Join(bridges, " ")
}
