package vehicleshift

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shiptracker/internal/shipment"
	"shiptracker/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrParse is returned when the page does not have the exact structure of a
// tracking result, no partially filled record is ever returned.
var ErrParse = errors.New("parse error")

const (
	statusHeaderSelector = "p#result-status-header"
	historyTableSelector = "table#shipment-history"
	historyTableId       = "shipment-history"

	unknownStatus = "Unknown"
)

// Parse extracts the overall status header and the most recent row of the
// shipment history table. The site lists history newest first, so the first
// row of the table body is the latest update.
func Parse(page string, now time.Time) (shipment.StatusRecord, error) {
	record, _, err := parse(page, now)
	return record, err
}

// parse is Parse that also returns the number of history rows on the page.
func parse(page string, now time.Time) (record shipment.StatusRecord, rows int, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = shipment.StatusRecord{}
			rows = 0
			err = fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return shipment.StatusRecord{}, 0, fmt.Errorf("%w: %w", ErrParse, err)
	}

	fullStatus := unknownStatus
	header := doc.Find(statusHeaderSelector)
	if header.Length() > 0 {
		fullStatus = htmlutil.SelectionText(header)
	}

	table := doc.Find(historyTableSelector).First()
	if table.Length() == 0 {
		return shipment.StatusRecord{}, 0, fmt.Errorf("%w: history table not found", ErrParse)
	}
	// the html5 parser wraps bare rows in an implied tbody, only the markup
	// tells whether the site actually sent one
	if !hasExplicitBody(page) {
		return shipment.StatusRecord{}, 0, fmt.Errorf("%w: history table has no body", ErrParse)
	}
	body := table.Find("tbody").First()
	rowSel := body.Find("tr")
	if rowSel.Length() == 0 {
		return shipment.StatusRecord{}, 0, fmt.Errorf("%w: history table has no rows", ErrParse)
	}
	cells := rowSel.First().Find("td")
	if cells.Length() < 4 {
		return shipment.StatusRecord{}, 0, fmt.Errorf(
			"%w: latest history row has %d cells, want at least 4",
			ErrParse, cells.Length(),
		)
	}

	return shipment.StatusRecord{
		Date:       htmlutil.SelectionText(cells.Eq(0)),
		Time:       htmlutil.SelectionText(cells.Eq(1)),
		Location:   htmlutil.SelectionText(cells.Eq(2)),
		Status:     htmlutil.SelectionText(cells.Eq(3)),
		FullStatus: fullStatus,
		Timestamp:  now.Format(time.RFC3339),
	}, rowSel.Length(), nil
}

// hasExplicitBody reports whether the first history table in the raw page
// contains a <tbody> start tag, nested tables included.
func hasExplicitBody(page string) bool {
	z := html.NewTokenizer(strings.NewReader(page))
	depth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "table":
				if depth > 0 {
					depth++
				} else if hasAttr && tagId(z) == historyTableId {
					depth = 1
				}
			case "tbody":
				if depth > 0 {
					return true
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if depth > 0 && string(name) == "table" {
				depth--
				if depth == 0 {
					return false
				}
			}
		}
	}
}

func tagId(z *html.Tokenizer) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "id" {
			return string(val)
		}
		if !more {
			return ""
		}
	}
}
