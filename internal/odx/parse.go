package odx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/encoding/ianaindex"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
	"diagconv/internal/resolve"
)

// ErrNoContainer is returned for a well-formed ODX document that carries no
// DIAG-LAYER-CONTAINER (a COMPARAM-SPEC, for instance).
var ErrNoContainer = errors.New("odx: document has no DIAG-LAYER-CONTAINER")

const defaultMaxWarnings = 4096

type Options struct {
	Mode      resolve.Mode
	Audiences []string
	// MaxWarnings caps Result.Warnings; zero selects a default.
	MaxWarnings int
}

// Result is a resolved database plus everything the reader and the resolver
// had to say about the input.
type Result struct {
	DB       *ir.DiagDatabase
	Warnings *diag.Bag
}

// Parse reads one ODX document and resolves its layers.
func Parse(r io.Reader, opts Options) (*Result, error) {
	doc, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}
	if doc.Container == nil {
		return nil, ErrNoContainer
	}
	return build([]*document{doc}, opts)
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte, opts Options) (*Result, error) {
	return Parse(bytes.NewReader(data), opts)
}

func decodeDocument(r io.Reader) (*document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("odx: %w", err)
	}
	return &doc, nil
}

// charsetReader accepts the legacy encodings some ODX authoring tools still
// declare (ISO-8859-1, windows-1252).
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// build turns the layers of all docs into one resolver run. docs must all
// carry a container. notes are recorded ahead of everything else.
func build(docs []*document, opts Options, notes ...diag.Diagnostic) (*Result, error) {
	maxWarnings := opts.MaxWarnings
	if maxWarnings <= 0 {
		maxWarnings = defaultMaxWarnings
	}
	bag := diag.NewBag(maxWarnings)
	for _, d := range notes {
		bag.Add(d)
	}
	b := &builder{
		ix:  newIndex(docs),
		rep: diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
	}

	var layers []resolve.Layer
	for _, doc := range docs {
		for _, g := range layerGroups(doc.Container) {
			for i := range g.layers {
				layers = append(layers, b.layer(g.kind, &g.layers[i]))
			}
		}
	}

	db := header(docs)
	res, err := resolve.Resolve(layers, resolve.Options{
		Mode:        opts.Mode,
		Audiences:   opts.Audiences,
		MaxWarnings: maxWarnings,
	})
	if err != nil {
		return nil, err
	}
	res.Apply(db)
	bag.Merge(res.Warnings)
	return &Result{DB: db, Warnings: bag}, nil
}

// header takes name, version and revision from the first document that
// declares variants; protocol-only documents in a PDX have none.
func header(docs []*document) *ir.DiagDatabase {
	src := docs[0]
	for _, doc := range docs {
		c := doc.Container
		if len(items(c.BaseVariants))+len(items(c.EcuVariants)) > 0 {
			src = doc
			break
		}
	}
	db := &ir.DiagDatabase{
		EcuName: clean(src.Container.ShortName),
		Version: clean(src.Version),
	}
	if ad := src.Container.AdminData; ad != nil {
		if revs := items(ad.DocRevisions); len(revs) > 0 {
			db.Revision = clean(revs[len(revs)-1].RevisionLabel)
		}
	}
	for _, doc := range docs {
		for _, g := range items(doc.Container.Sdgs) {
			if g.SI != metadataSI {
				continue
			}
			for _, s := range g.Sds {
				if db.Metadata == nil {
					db.Metadata = make(map[string]string)
				}
				if _, dup := db.Metadata[s.SI]; !dup {
					db.Metadata[s.SI] = clean(s.Value)
				}
			}
		}
	}
	return db
}

// metadataSI tags the container SDG that carries database metadata.
const metadataSI = "diagconv.metadata"

type builder struct {
	ix  *index
	rep diag.Reporter
}

func (b *builder) warn(code diag.Code, subject, format string, args ...any) {
	b.rep.Report(code, diag.SevWarning, subject, fmt.Sprintf(format, args...), nil)
}

// ref returns the short-name behind an ID-REF. Unknown IDs are kept as-is
// so the reference stays visible downstream.
func (b *builder) ref(l *link, subject string) string {
	if l == nil {
		return ""
	}
	if name, ok := b.ix.names[l.IDRef]; ok {
		return name
	}
	b.warn(diag.OdxUnknownIDRef, subject, "unknown ID-REF %q", l.IDRef)
	return l.IDRef
}

func (b *builder) refs(ls []link, subject string) []string {
	if len(ls) == 0 {
		return nil
	}
	out := make([]string, 0, len(ls))
	for i := range ls {
		out = append(out, b.ref(&ls[i], subject))
	}
	return out
}

func clean(s string) string { return strings.TrimSpace(s) }

func cleanAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = clean(s)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = clean(v); v != "" {
			return v
		}
	}
	return ""
}

func snrefName(s *snref) string {
	if s == nil {
		return ""
	}
	return clean(s.ShortName)
}

func irText(t *text) *ir.Text {
	if t == nil {
		return nil
	}
	return &ir.Text{Value: clean(t.Value), TI: t.TI}
}

// isTrue follows xsd:boolean.
func isTrue(s string) bool {
	s = clean(s)
	return s == "true" || s == "1"
}

func isFalse(s string) bool {
	s = clean(s)
	return s == "false" || s == "0"
}

func parseUint(s string, bits int) (uint64, error) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(rest, 16, bits)
	}
	if rest, ok := strings.CutPrefix(s, "0X"); ok {
		return strconv.ParseUint(rest, 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

func (b *builder) u32(s, subject, what string) *uint32 {
	s = clean(s)
	if s == "" {
		return nil
	}
	v, err := parseUint(s, 32)
	if err != nil {
		b.warn(diag.OdxBadNumber, subject, "%s %q is not an unsigned 32-bit number", what, s)
		return nil
	}
	u, err := safecast.Conv[uint32](v)
	if err != nil {
		b.warn(diag.OdxBadNumber, subject, "%s %q: %v", what, s, err)
		return nil
	}
	return &u
}

func (b *builder) i32(s, subject, what string) *int32 {
	s = clean(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		b.warn(diag.OdxBadNumber, subject, "%s %q is not a 32-bit integer", what, s)
		return nil
	}
	i, err := safecast.Conv[int32](v)
	if err != nil {
		b.warn(diag.OdxBadNumber, subject, "%s %q: %v", what, s, err)
		return nil
	}
	return &i
}

func (b *builder) f64(s, subject, what string) *float64 {
	s = clean(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		b.warn(diag.OdxBadNumber, subject, "%s %q is not a number", what, s)
		return nil
	}
	return &v
}

func (b *builder) floats(in []string, subject, what string) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, 0, len(in))
	for _, s := range in {
		if v := b.f64(s, subject, what); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func optBool(s string) *bool {
	switch {
	case isTrue(s):
		v := true
		return &v
	case isFalse(s):
		v := false
		return &v
	}
	return nil
}
