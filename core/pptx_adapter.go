package core

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PptxDeck is an opened .pptx package. Slide XML is edited in memory; every other part
// is copied through unchanged on save.
type PptxDeck struct {
	files  []*zip.File
	slides map[string]*slidePart
	order  []*slidePart
	closer io.Closer
}

type slidePart struct {
	name   string
	number int
	doc    *etree.Document
	frames []*pptxFrame
	dirty  bool
}

// OpenDeck opens a presentation file. Close releases it.
func OpenDeck(path string) (*PptxDeck, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open presentation %s: %w", path, err)
	}
	deck, err := newDeck(rc.File)
	if err != nil {
		rc.Close()
		return nil, err
	}
	deck.closer = rc
	return deck, nil
}

// ReadDeck reads a presentation from r.
func ReadDeck(r io.ReaderAt, size int64) (*PptxDeck, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation: %w", err)
	}
	return newDeck(zr.File)
}

func newDeck(files []*zip.File) (*PptxDeck, error) {
	d := &PptxDeck{files: files, slides: make(map[string]*slidePart)}
	for _, f := range files {
		m := slidePartPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		doc, err := readXMLPart(f)
		if err != nil {
			return nil, err
		}
		part := &slidePart{name: f.Name, number: n, doc: doc}
		collectFrames(part, doc.Root())
		d.slides[f.Name] = part
		d.order = append(d.order, part)
	}
	if len(d.order) == 0 {
		return nil, fmt.Errorf("presentation has no slides")
	}
	sort.Slice(d.order, func(i, j int) bool { return d.order[i].number < d.order[j].number })
	return d, nil
}

func readXMLPart(f *zip.File) (*etree.Document, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", f.Name, err)
	}
	defer rc.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("failed to parse part %s: %w", f.Name, err)
	}
	return doc, nil
}

// collectFrames walks shapes, group shapes and tables in document order.
func collectFrames(part *slidePart, el *etree.Element) {
	if el == nil {
		return
	}
	if el.Tag == "txBody" {
		part.frames = append(part.frames, &pptxFrame{part: part, body: el})
		return
	}
	for _, c := range el.ChildElements() {
		collectFrames(part, c)
	}
}

// Frames returns every text frame in slide order.
func (d *PptxDeck) Frames() []TextFrame {
	var out []TextFrame
	for _, s := range d.order {
		for _, f := range s.frames {
			out = append(out, f)
		}
	}
	return out
}

// SlideCount returns the number of slides.
func (d *PptxDeck) SlideCount() int { return len(d.order) }

// Save writes the package to w.
func (d *PptxDeck) Save(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range d.files {
		part, ok := d.slides[f.Name]
		if !ok || !part.dirty {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy part %s: %w", f.Name, err)
			}
			continue
		}
		data, err := part.doc.WriteToBytes()
		if err != nil {
			return fmt.Errorf("failed to serialize part %s: %w", f.Name, err)
		}
		pw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return fmt.Errorf("failed to create part %s: %w", f.Name, err)
		}
		if _, err := pw.Write(data); err != nil {
			return fmt.Errorf("failed to write part %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

// SaveAs writes the package to path.
func (d *PptxDeck) SaveAs(path string) (err error) {
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write presentation %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying file when the deck was opened from disk.
func (d *PptxDeck) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

type pptxFrame struct {
	part *slidePart
	body *etree.Element
}

// pptxAtom is a run, field or line break of a paragraph, or a paragraph boundary.
type pptxAtom struct {
	text  string
	style *etree.Element // rPr of the source run, may be nil
	para  int            // paragraph whose properties apply
	brk   bool
	field *etree.Element // a:fld element kept verbatim while its text is untouched
}

type pptxParagraph struct {
	elem  *etree.Element
	atoms []pptxAtom
	start int
	end   int
}

func childElement(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func (f *pptxFrame) layout() []pptxParagraph {
	var paras []pptxParagraph
	offset := 0
	for _, p := range f.body.ChildElements() {
		if p.Tag != "p" {
			continue
		}
		if len(paras) > 0 {
			offset++
		}
		idx := len(paras)
		para := pptxParagraph{elem: p, start: offset}
		for _, c := range p.ChildElements() {
			switch c.Tag {
			case "r", "fld":
				text := ""
				if t := childElement(c, "t"); t != nil {
					text = t.Text()
				}
				atom := pptxAtom{text: text, style: childElement(c, "rPr"), para: idx}
				if c.Tag == "fld" {
					atom.field = c
				}
				para.atoms = append(para.atoms, atom)
				offset += len(text)
			case "br":
				para.atoms = append(para.atoms, pptxAtom{text: "\v", style: childElement(c, "rPr"), para: idx})
				offset++
			}
		}
		para.end = offset
		paras = append(paras, para)
	}
	return paras
}

// Text returns the frame text; paragraphs are joined by "\n", line breaks are "\v".
func (f *pptxFrame) Text() string {
	var b strings.Builder
	for i, p := range f.layout() {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, a := range p.atoms {
			b.WriteString(a.text)
		}
	}
	return b.String()
}

type editBlock struct {
	first, last int
	edits       []TextEdit
}

// ReplaceSpans rewrites only the paragraphs touched by edits. Text outside the edits keeps
// its run formatting; each replacement takes the formatting of the run where it starts,
// and new paragraphs reuse the properties of the paragraph where the edit starts.
func (f *pptxFrame) ReplaceSpans(edits []TextEdit) error {
	if len(edits) == 0 {
		return nil
	}
	paras := f.layout()
	total := 0
	if len(paras) > 0 {
		total = paras[len(paras)-1].end
	}
	for i, e := range edits {
		if e.Start < 0 || e.End < e.Start || e.End > total {
			return fmt.Errorf("edit %d [%d,%d) out of range for text of length %d", i, e.Start, e.End, total)
		}
		if i > 0 && e.Start < edits[i-1].End {
			return fmt.Errorf("edit %d overlaps the previous edit", i)
		}
	}
	if len(paras) == 0 {
		return nil
	}

	paraAt := func(off int) int {
		i := sort.Search(len(paras), func(i int) bool { return paras[i].start > off })
		if i == 0 {
			return 0
		}
		return i - 1
	}

	var blocks []*editBlock
	for _, e := range edits {
		first := paraAt(e.Start)
		last := first
		if e.End > e.Start {
			last = paraAt(e.End - 1)
		}
		if n := len(blocks); n > 0 && first <= blocks[n-1].last {
			b := blocks[n-1]
			if last > b.last {
				b.last = last
			}
			b.edits = append(b.edits, e)
			continue
		}
		blocks = append(blocks, &editBlock{first: first, last: last, edits: []TextEdit{e}})
	}

	for i := len(blocks) - 1; i >= 0; i-- {
		f.rebuild(paras, blocks[i], paraAt)
	}
	f.part.dirty = true
	return nil
}

type placedAtom struct {
	pptxAtom
	start, end int
}

func (f *pptxFrame) rebuild(paras []pptxParagraph, blk *editBlock, paraAt func(int) int) {
	var stream []placedAtom
	for i := blk.first; i <= blk.last; i++ {
		if i > blk.first {
			stream = append(stream, placedAtom{pptxAtom{text: "\n", para: i, brk: true}, paras[i].start - 1, paras[i].start})
		}
		off := paras[i].start
		for _, a := range paras[i].atoms {
			stream = append(stream, placedAtom{a, off, off + len(a.text)})
			off += len(a.text)
		}
	}

	styleAt := func(pos int) *etree.Element {
		var before *etree.Element
		for _, a := range stream {
			if a.brk || a.start == a.end {
				continue
			}
			if a.start <= pos && pos < a.end {
				return a.style
			}
			if a.start >= pos {
				return a.style
			}
			before = a.style
		}
		return before
	}

	var out []pptxAtom
	emit := func(e TextEdit) {
		style, para := styleAt(e.Start), paraAt(e.Start)
		for k, part := range strings.Split(e.Text, "\n") {
			if k > 0 {
				out = append(out, pptxAtom{para: para, brk: true})
			}
			if part != "" {
				out = append(out, pptxAtom{text: part, style: style, para: para})
			}
		}
	}

	edits := blk.edits
	emitted := make([]bool, len(edits))
	ei := 0
	for _, a := range stream {
		if a.field != nil && a.start == a.end {
			if ei >= len(edits) || !(edits[ei].Start < a.start && a.start < edits[ei].End) {
				out = append(out, a.pptxAtom)
			}
			continue
		}
		cur := a.start
		for cur < a.end {
			if ei < len(edits) && edits[ei].Start <= cur {
				if !emitted[ei] {
					emit(edits[ei])
					emitted[ei] = true
				}
				if cur < edits[ei].End {
					cur = min(a.end, edits[ei].End)
				}
				if cur >= edits[ei].End {
					ei++
				}
				continue
			}
			next := a.end
			if ei < len(edits) && edits[ei].Start < next {
				next = edits[ei].Start
			}
			if a.brk || (cur == a.start && next == a.end) {
				out = append(out, a.pptxAtom)
			} else {
				out = append(out, pptxAtom{text: a.text[cur-a.start : next-a.start], style: a.style, para: a.para})
			}
			cur = next
		}
	}
	for ; ei < len(edits); ei++ {
		if !emitted[ei] {
			emit(edits[ei])
		}
	}

	f.replaceParagraphs(paras, blk, out)
}

func (f *pptxFrame) replaceParagraphs(paras []pptxParagraph, blk *editBlock, atoms []pptxAtom) {
	prefix := paras[blk.first].elem.Space

	newParagraph := func(src int) *etree.Element {
		p := etree.NewElement(qualified(prefix, "p"))
		if pPr := childElement(paras[src].elem, "pPr"); pPr != nil {
			p.AddChild(pPr.Copy())
		}
		return p
	}
	finish := func(p *etree.Element, src int) {
		if end := childElement(paras[src].elem, "endParaRPr"); end != nil {
			p.AddChild(end.Copy())
		}
	}
	addRuns := func(p *etree.Element, a pptxAtom) {
		if a.field != nil {
			p.AddChild(a.field.Copy())
			return
		}
		for k, part := range strings.Split(a.text, "\v") {
			if k > 0 {
				br := etree.NewElement(qualified(prefix, "br"))
				if a.style != nil {
					br.AddChild(a.style.Copy())
				}
				p.AddChild(br)
			}
			if part == "" {
				continue
			}
			r := etree.NewElement(qualified(prefix, "r"))
			if a.style != nil {
				r.AddChild(a.style.Copy())
			}
			r.CreateElement(qualified(prefix, "t")).SetText(part)
			p.AddChild(r)
		}
	}

	var built []*etree.Element
	src := blk.first
	cur := newParagraph(src)
	for _, a := range atoms {
		if a.brk {
			finish(cur, src)
			built = append(built, cur)
			src = a.para
			cur = newParagraph(src)
			continue
		}
		addRuns(cur, a)
	}
	finish(cur, src)
	built = append(built, cur)

	idx := paras[blk.first].elem.Index()
	for i := blk.first; i <= blk.last; i++ {
		f.body.RemoveChild(paras[i].elem)
	}
	for k, p := range built {
		f.body.InsertChildAt(idx+k, p)
	}
}
