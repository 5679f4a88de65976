package reporter

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/amosWeiskopf/companyscope/internal/models"
	"github.com/amosWeiskopf/companyscope/pkg/extractor"
)

// MarkdownWriter renders the report as a human-readable document.
type MarkdownWriter struct {
	output io.Writer
}

func (w *MarkdownWriter) Write(report *models.Report) error {
	md := markdown.NewMarkdown(w.output)

	md.H1(report.Identity.CompanyName)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Website", report.Identity.WebsiteURL},
			{"Tagline", report.Identity.Tagline},
			{"Contact page", report.ContactLocation.ContactPageURL},
			{"Careers page", report.TeamHiring.CareersPageURL},
			{"Crawled at", report.Metadata.Timestamp},
			{"Pages crawled", strconv.Itoa(report.Metadata.TotalPages)},
		},
	})
	md.PlainText("")

	md.H2("What they do")
	md.PlainText("")
	md.PlainText(report.BusinessSummary.WhatTheyDo)
	md.PlainText("")

	writeList(md, "Primary offerings", report.BusinessSummary.PrimaryOfferings)
	writeList(md, "Target segments", report.BusinessSummary.TargetSegments)
	writeList(md, "Open roles", report.TeamHiring.OpenRolesSample)

	writeStrings(md, "Key pages", report.EvidenceProof.KeyPagesDetected)
	writeStrings(md, "Signals", report.EvidenceProof.SignalsFound)
	writeSocial(md, report.EvidenceProof.SocialLinks)
	writeStrings(md, "Emails", report.ContactLocation.Emails)
	writeStrings(md, "Phones", report.ContactLocation.Phones)
	writeStrings(md, "Pages crawled", report.Metadata.PagesCrawled)
	writeStrings(md, "Errors", report.Metadata.Errors)

	return md.Build()
}

func writeList(md *markdown.Markdown, title string, list models.TextList) {
	md.H2(title)
	md.PlainText("")
	if !list.Found {
		md.PlainText(models.NotFound)
	} else {
		md.BulletList(list.Items...)
	}
	md.PlainText("")
}

func writeStrings(md *markdown.Markdown, title string, items []string) {
	writeList(md, title, models.Found(items))
}

// writeSocial lists profiles in platform order rather than map order.
func writeSocial(md *markdown.Markdown, links map[string]string) {
	md.H2("Social profiles")
	md.PlainText("")
	if len(links) == 0 {
		md.PlainText(models.NotFound)
		md.PlainText("")
		return
	}

	title := cases.Title(language.English)
	var rows [][]string
	for _, platform := range extractor.SocialPlatforms() {
		if link, ok := links[platform]; ok {
			rows = append(rows, []string{title.String(platform), link})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Platform", "URL"},
		Rows:   rows,
	})
	md.PlainText("")
}
