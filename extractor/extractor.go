// Package extractor turns a fetched product page into a best-effort set
// of attributes. Each attribute is located by an ordered cascade of
// strategies; a field whose cascade finds nothing is left empty.
package extractor

import (
	"fmt"
	"net/http"

	"github.com/use-agent/prodscrape/models"
)

// Field names one extracted attribute.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldContact     Field = "contact"
	FieldSize        Field = "size"
	FieldCategory    Field = "category"
)

// Fields lists every extracted attribute in a stable order.
var Fields = []Field{FieldTitle, FieldDescription, FieldPrice, FieldContact, FieldSize, FieldCategory}

// Page is a completed fetch attempt. Err is set when no response was
// received; otherwise StatusCode and Body describe the response.
type Page struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

// Result holds the extracted attributes. Sources records, per field, the
// name of the strategy that produced the value; fields left empty have
// no entry.
type Result struct {
	Title       string
	Description string
	Price       string
	Contact     string
	Size        string
	Category    string

	Sources map[Field]string
}

// Get returns the value of field f.
func (r *Result) Get(f Field) string {
	switch f {
	case FieldTitle:
		return r.Title
	case FieldDescription:
		return r.Description
	case FieldPrice:
		return r.Price
	case FieldContact:
		return r.Contact
	case FieldSize:
		return r.Size
	case FieldCategory:
		return r.Category
	}
	return ""
}

func (r *Result) set(f Field, v string) {
	switch f {
	case FieldTitle:
		r.Title = v
	case FieldDescription:
		r.Description = v
	case FieldPrice:
		r.Price = v
	case FieldContact:
		r.Contact = v
	case FieldSize:
		r.Size = v
	case FieldCategory:
		r.Category = v
	}
}

// Apply overwrites all six attributes of rec with r, including replacing
// non-empty stored values with empty ones.
func (r *Result) Apply(rec *models.ProductRecord) {
	rec.Title = r.Title
	rec.Description = r.Description
	rec.Price = r.Price
	rec.Contact = r.Contact
	rec.Size = r.Size
	rec.Category = r.Category
}

// DefaultCascades returns the standard strategy order for every field.
func DefaultCascades() map[Field]Cascade {
	return map[Field]Cascade{
		FieldTitle: {
			MetaContent(`meta[property="og:title"]`),
			ElementText(`title`),
		},
		FieldDescription: {
			MetaContent(`meta[property="og:description"]`),
			MetaContent(`meta[name="description"]`),
		},
		FieldPrice: {
			MetaContent(`meta[property="product:price:amount"]`),
			MetaContent(`meta[itemprop="price"]`),
			StructuredField("offers", "price"),
			Pattern("rupee", rupeePattern),
			Pattern("rs", rsPattern),
		},
		FieldContact: {
			Pattern("phone", phonePattern),
		},
		FieldSize: {
			StructuredField("size"),
		},
		FieldCategory: {
			StructuredField("category"),
			StructuredField("itemCategory"),
		},
	}
}

// Extractor runs the field cascades over fetched pages. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	cascades map[Field]Cascade
}

// New creates an Extractor with DefaultCascades.
func New() *Extractor {
	return &Extractor{cascades: DefaultCascades()}
}

// NewWithCascades creates an Extractor with custom cascades. Fields
// missing from cascades are always empty.
func NewWithCascades(cascades map[Field]Cascade) *Extractor {
	return &Extractor{cascades: cascades}
}

// Cascade returns the strategies used for f.
func (e *Extractor) Cascade(f Field) Cascade {
	return e.cascades[f]
}

// Extract converts a fetch attempt into a Result. A transport failure or
// a non-200 status returns a FETCH_FAILED *models.ScrapeError before any
// parsing happens. Field misses are never errors.
func (e *Extractor) Extract(page *Page) (*Result, error) {
	if page.Err != nil {
		return nil, models.NewFetchError(fmt.Sprintf("Request failed: %v", page.Err), page.Err)
	}
	if page.StatusCode != http.StatusOK {
		return nil, models.NewFetchError(fmt.Sprintf("Status code: %d", page.StatusCode), nil)
	}
	return e.ExtractDocument(NewDocument(page.Body)), nil
}

// ExtractDocument runs every cascade against an already parsed document.
func (e *Extractor) ExtractDocument(doc *Document) *Result {
	res := &Result{Sources: make(map[Field]string, len(Fields))}
	for _, f := range Fields {
		value, step := e.cascades[f].Resolve(doc)
		if step == "" {
			continue
		}
		res.set(f, value)
		res.Sources[f] = step
	}
	return res
}
