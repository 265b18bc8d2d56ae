// Package pdfmeta extracts metadata from chromatographic method report
// PDFs supplied alongside imported datasets.
package pdfmeta

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// maxPages limits the scan; method reports cite the source publication
// on the first pages.
const maxPages = 3

// ExtractDOI extracts the publication DOI from a method report PDF.
// Returns an empty string (not an error) when no DOI is present.
func ExtractDOI(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := maxPages
	if r.NumPage() < pages {
		pages = r.NumPage()
	}

	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if doi := FindDOI(text); doi != "" {
			return doi, nil
		}
	}

	return "", nil
}

// FindDOI returns the first DOI in the given text, cleaned of trailing
// punctuation that PDF text extraction tends to glue on.
func FindDOI(text string) string {
	match := doiPattern.FindString(text)
	if match == "" {
		return ""
	}
	return strings.TrimRight(match, ".,;:)")
}
