package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"PaperDigest/internal/domain"
)

const (
	headerRule = "============================================================"
	entryRule  = "------------------------------------------------------------"

	maxListedAuthors = 3
	etAl             = " et al."
	footer           = "Generated by ArXiv Digest App"
	dateLayout       = "2006-01-02"
	longDateLayout   = "January 2, 2006"
)

//go:embed templates/digest.html.tmpl
var templateFS embed.FS

var digestTemplate = template.Must(template.ParseFS(templateFS, "templates/digest.html.tmpl"))

// Digest is the rendered output for one run.
type Digest struct {
	Subject   string
	HTML      string
	Plaintext string
	Count     int
}

type pageData struct {
	Count    int
	Date     string
	Keywords string
	Entries  []entryData
	Footer   string
}

type entryData struct {
	Title        string
	Authors      string
	Published    string
	SummaryLines []string
	PDFURL       string
	AbsURL       string
}

// Render formats entries as an HTML email body and a plaintext document.
// Field values are rendered as-is; only HTML escaping is applied.
func Render(entries []domain.DigestEntry, cfg domain.DigestConfig, date time.Time) Digest {
	data := pageData{
		Count:    len(entries),
		Date:     date.Format(longDateLayout),
		Keywords: strings.TrimSpace(cfg.Keywords),
		Entries:  make([]entryData, 0, len(entries)),
		Footer:   footer,
	}
	for _, entry := range entries {
		data.Entries = append(data.Entries, entryData{
			Title:        entry.Paper.Title,
			Authors:      FormatAuthors(entry.Paper.Authors),
			Published:    entry.Paper.PublishedAt.Format(dateLayout),
			SummaryLines: strings.Split(entry.Summary, "\n"),
			PDFURL:       entry.Paper.PDFURL,
			AbsURL:       entry.Paper.AbsURL,
		})
	}

	var buf bytes.Buffer
	// The template is fixed and the data is plain strings, so Execute can
	// only fail on a writer error, which bytes.Buffer never returns.
	_ = digestTemplate.Execute(&buf, data)

	return Digest{
		Subject:   Subject(date),
		HTML:      buf.String(),
		Plaintext: plaintext(data, entries),
		Count:     len(entries),
	}
}

// Subject builds the email subject line for the given day.
func Subject(date time.Time) string {
	return "ArXiv Daily Digest – " + date.Format(longDateLayout)
}

// FileName is the download name of the plaintext digest.
func FileName(date time.Time) string {
	return "arxiv_digest_" + date.Format("20060102") + ".txt"
}

// FormatAuthors lists the first three authors and appends "et al." when
// more exist.
func FormatAuthors(authors []string) string {
	if len(authors) <= maxListedAuthors {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:maxListedAuthors], ", ") + etAl
}

func plaintext(data pageData, entries []domain.DigestEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ArXiv Digest - %s\n", data.Date)
	fmt.Fprintf(&b, "Papers: %d\n", data.Count)
	if data.Keywords != "" {
		fmt.Fprintf(&b, "Keywords: %s\n", data.Keywords)
	}
	b.WriteString(headerRule + "\n\n")

	for i, entry := range data.Entries {
		fmt.Fprintf(&b, "Title: %s\n", entry.Title)
		fmt.Fprintf(&b, "Authors: %s\n", entry.Authors)
		fmt.Fprintf(&b, "Published: %s\n", entry.Published)
		fmt.Fprintf(&b, "PDF: %s\n", entry.PDFURL)
		fmt.Fprintf(&b, "arXiv: %s\n\n", entry.AbsURL)
		b.WriteString("Summary:\n" + strings.TrimRight(entries[i].Summary, "\n") + "\n\n")
		b.WriteString(entryRule + "\n\n")
	}

	b.WriteString(footer + "\n")
	return b.String()
}
