// Package anchor represents "where in a book" a highlight or bookmark
// lives, across the three supported formats.
//
// The three formats have incompatible position concepts: EPUB uses an
// opaque structural range (CFI) produced by the reader, PDF uses pixel
// rectangles on a fixed page, and plain text uses character offsets inside
// a section. Encode folds whichever payload is populated into a single
// opaque string so one database column and one wire field carry all three.
package anchor

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/ndemidov/liber/internal/entities"
)

// Rect is a highlight rectangle in PDF page space, in points.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// PagePayload anchors a position to rectangles on a fixed page.
type PagePayload struct {
	PageNumber int    `json:"page_number"`
	Rects      []Rect `json:"rects,omitempty"`
	Bounding   Rect   `json:"bounding"`
}

// TextRange is a half-inclusive character range, Start <= End.
type TextRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TextPayload anchors a position to a character range inside a section of a
// plain-text book.
type TextPayload struct {
	SectionIndex int       `json:"section_index"`
	Position     TextRange `json:"position"`
}

// Anchor identifies a location inside one book. Exactly one payload is
// populated, matching Format: EpubCFI for epub, Page for pdf, Text for txt.
type Anchor struct {
	Format  entities.BookFormat
	EpubCFI string
	Page    *PagePayload
	Text    *TextPayload
}

// Validate checks that the payload matches Format and is internally
// consistent: non-negative page/section numbers and Start <= End.
func (a Anchor) Validate() error {
	switch a.Format {
	case entities.FormatEpub:
		if a.Page != nil || a.Text != nil {
			return fmt.Errorf("epub anchor must carry only a CFI range")
		}
	case entities.FormatPDF:
		if a.Page == nil {
			return fmt.Errorf("pdf anchor requires a page payload")
		}
		if a.EpubCFI != "" || a.Text != nil {
			return fmt.Errorf("pdf anchor must carry only a page payload")
		}
		if a.Page.PageNumber < 1 {
			return fmt.Errorf("page number must be positive, got %d", a.Page.PageNumber)
		}
	case entities.FormatText:
		if a.Text == nil {
			return fmt.Errorf("txt anchor requires a text payload")
		}
		if a.EpubCFI != "" || a.Page != nil {
			return fmt.Errorf("txt anchor must carry only a text payload")
		}
		if a.Text.SectionIndex < 0 {
			return fmt.Errorf("section index must be non-negative, got %d", a.Text.SectionIndex)
		}
		if a.Text.Position.Start < 0 || a.Text.Position.Start > a.Text.Position.End {
			return fmt.Errorf("invalid position range [%d, %d]", a.Text.Position.Start, a.Text.Position.End)
		}
	default:
		return fmt.Errorf("unsupported format %q", a.Format)
	}
	return nil
}

// Encode serializes the anchor's payload into a single opaque string. The
// EPUB CFI is already an opaque externally produced blob and passes through
// verbatim; pdf and txt payloads are marshaled to JSON.
func Encode(a Anchor) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}

	switch a.Format {
	case entities.FormatEpub:
		return a.EpubCFI, nil
	case entities.FormatPDF:
		raw, err := json.Marshal(a.Page)
		if err != nil {
			return "", fmt.Errorf("encode pdf anchor: %w", err)
		}
		return string(raw), nil
	default:
		raw, err := json.Marshal(a.Text)
		if err != nil {
			return "", fmt.Errorf("encode txt anchor: %w", err)
		}
		return string(raw), nil
	}
}

// Decode parses an encoded anchor back into its payload. It never fails:
// malformed input yields the per-format default anchor instead, because the
// highlighted text itself still exists even when its precise position was
// lost. Fallbacks are logged so they stay visible.
func Decode(raw string, format entities.BookFormat) Anchor {
	switch format {
	case entities.FormatEpub:
		return Anchor{Format: format, EpubCFI: raw}

	case entities.FormatPDF:
		var page PagePayload
		if err := json.Unmarshal([]byte(raw), &page); err != nil {
			logFallback(format, err)
			return Default(format)
		}
		a := Anchor{Format: format, Page: &page}
		if err := a.Validate(); err != nil {
			logFallback(format, err)
			return Default(format)
		}
		return a

	case entities.FormatText:
		var text TextPayload
		if err := json.Unmarshal([]byte(raw), &text); err != nil {
			logFallback(format, err)
			return Default(format)
		}
		a := Anchor{Format: format, Text: &text}
		if err := a.Validate(); err != nil {
			logFallback(format, err)
			return Default(format)
		}
		return a

	default:
		logFallback(format, fmt.Errorf("unsupported format"))
		return Anchor{Format: entities.FormatText, Text: &TextPayload{}}
	}
}

// Default returns the fallback anchor for a format: page 1 with no
// rectangles for pdf, section 0 at offset [0, 0] for txt, an empty CFI for
// epub.
func Default(format entities.BookFormat) Anchor {
	switch format {
	case entities.FormatEpub:
		return Anchor{Format: format}
	case entities.FormatPDF:
		return Anchor{Format: format, Page: &PagePayload{PageNumber: 1}}
	default:
		return Anchor{Format: entities.FormatText, Text: &TextPayload{}}
	}
}

func logFallback(format entities.BookFormat, err error) {
	log.Printf("WARNING: anchor decode fallback for format %s: %v", format, err)
}
