// Package pdf renders agreements into a fixed single-page PDF layout. The
// output is deterministic for identical inputs: the creation date is pinned
// so repeated renders of the same agreement are byte-identical.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
)

// ErrMissingSignature is returned when the creator or recipient signature is
// absent. Both are mandatory: an unsigned agreement has no download.
var ErrMissingSignature = errors.New("agreement is missing a required signature")

const (
	pageWidth  = 600
	pageHeight = 800
	margin     = 50
	lineHeight = 15
	wrapWidth  = 90

	// signature boxes sit a fixed distance above the footer
	signatureBlockY = pageHeight - 220
	imageBoxWidth   = 100
	imageBoxHeight  = 50
)

// fixed creation date keeps renders byte-reproducible
var renderedAt = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var wrapRe = regexp.MustCompile(`.{1,90}(\s+|$)`)

// Render produces the agreement PDF: centered title, wrapped content, a
// two-column signature block ("Created By" left, "Accepted By" right) and a
// footer carrying the agreement id.
func Render(a *agreement.Agreement, creator, recipient *agreement.Signature) ([]byte, error) {
	if creator == nil || recipient == nil {
		return nil, ErrMissingSignature
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	doc.SetCreationDate(renderedAt)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	// faint watermark behind the content
	doc.SetFont("Helvetica", "B", 50)
	doc.SetTextColor(230, 230, 230)
	doc.SetAlpha(0.3, "Normal")
	doc.Text(160, pageHeight/2, "CONFIDENTIAL")
	doc.SetAlpha(1.0, "Normal")

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 24)
	doc.SetXY(margin, margin)
	doc.CellFormat(pageWidth-2*margin, 28, a.Title, "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 12)
	y := float64(margin + 28 + 2*lineHeight)
	for _, line := range wrapContent(a.Content) {
		if y >= signatureBlockY-2*lineHeight {
			break
		}
		doc.Text(margin, y, line)
		y += lineHeight
	}

	if err := drawSignature(doc, margin, "Created By", creator, "creator"); err != nil {
		return nil, err
	}
	if err := drawSignature(doc, pageWidth/2+20, "Accepted By", recipient, "recipient"); err != nil {
		return nil, err
	}

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(128, 128, 128)
	doc.Text(margin, pageHeight-margin, fmt.Sprintf("Agreement ID: %s", a.ID))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render agreement pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawSignature renders one signature column: label, the signature itself
// (text for typed, embedded raster for image), a rule and the signer email.
func drawSignature(doc *fpdf.Fpdf, x float64, label string, sig *agreement.Signature, slot string) error {
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 14)
	doc.Text(x, signatureBlockY, label)

	switch sig.Type {
	case agreement.SignatureTyped:
		doc.SetFont("Helvetica", "I", 16)
		doc.Text(x, signatureBlockY+3*lineHeight, sig.Value)
	case agreement.SignatureImage:
		format, data, err := agreement.ParseImageValue(sig.Value)
		if err != nil {
			return err
		}
		opts := fpdf.ImageOptions{ImageType: string(format)}
		doc.RegisterImageOptionsReader(slot, opts, bytes.NewReader(data))
		doc.ImageOptions(slot, x, signatureBlockY+lineHeight, imageBoxWidth, imageBoxHeight, false, opts, 0, "")
	default:
		return agreement.ErrUnsupportedImageFormat
	}

	lineY := signatureBlockY + float64(imageBoxHeight) + 2*lineHeight
	doc.SetDrawColor(0, 0, 0)
	doc.Line(x, lineY, x+180, lineY)
	doc.SetFont("Helvetica", "", 10)
	doc.Text(x, lineY+lineHeight, sig.Email)
	return nil
}

// wrapContent splits the content into render lines. Paragraph breaks are
// kept; within a paragraph the text is chopped at wrapWidth characters,
// seeking trailing whitespace. Runs longer than wrapWidth with no whitespace
// are split hard so nothing is dropped.
func wrapContent(content string) []string {
	var lines []string
	for _, para := range strings.Split(content, "\n") {
		if para == "" {
			lines = append(lines, "")
			continue
		}
		pos := 0
		for _, loc := range wrapRe.FindAllStringIndex(para, -1) {
			if loc[0] > pos {
				lines = append(lines, hardSplit(para[pos:loc[0]])...)
			}
			lines = append(lines, strings.TrimRight(para[loc[0]:loc[1]], " \t"))
			pos = loc[1]
		}
		if pos < len(para) {
			lines = append(lines, hardSplit(para[pos:])...)
		}
	}
	return lines
}

func hardSplit(s string) []string {
	var out []string
	for len(s) > wrapWidth {
		out = append(out, s[:wrapWidth])
		s = s[wrapWidth:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
