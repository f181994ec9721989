package document

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// The XML wire form is the canonical on-disk representation of a
// document: every corrected field, the source shadow, and the internal
// bookkeeping (state, version, file info) round-trip through it. The
// layout is versioned by the root element so a future format change can
// be detected on read.

const xmlTimeLayout = time.RFC3339

type xmlFields struct {
	Title      string `xml:"title,omitempty"`
	Abstract   string `xml:"abstract,omitempty"`
	Year       string `xml:"year,omitempty"`
	Venue      string `xml:"venue,omitempty"`
	VenueType  string `xml:"venueType,omitempty"`
	Pages      string `xml:"pages,omitempty"`
	Volume     string `xml:"volume,omitempty"`
	Number     string `xml:"number,omitempty"`
	Publisher  string `xml:"publisher,omitempty"`
	PubAddress string `xml:"pubAddress,omitempty"`
	Tech       string `xml:"tech,omitempty"`
}

type xmlSource struct {
	xmlFields
	Citations string `xml:"citations,omitempty"`
}

type xmlAuthor struct {
	Name        string `xml:"name"`
	Affiliation string `xml:"affiliation,omitempty"`
	Address     string `xml:"address,omitempty"`
	Email       string `xml:"email,omitempty"`
	Ord         int    `xml:"order,attr"`
	ClusterID   *int64 `xml:"cluster,omitempty"`
}

type xmlCitation struct {
	Raw       string   `xml:"raw,omitempty"`
	Title     string   `xml:"title,omitempty"`
	Venue     string   `xml:"venue,omitempty"`
	Year      string   `xml:"year,omitempty"`
	Authors   []string `xml:"authors>author"`
	Self      bool     `xml:"self,attr"`
	ClusterID *int64   `xml:"cluster,omitempty"`
	Contexts  []string `xml:"contexts>context"`
}

type xmlAck struct {
	Name      string   `xml:"name"`
	AckType   string   `xml:"type,attr,omitempty"`
	ClusterID *int64   `xml:"cluster,omitempty"`
	Contexts  []string `xml:"contexts>context"`
}

type xmlTag struct {
	Name  string `xml:",chardata"`
	Count int    `xml:"count,attr"`
}

type xmlLink struct {
	Label string `xml:"label,attr"`
	URL   string `xml:",chardata"`
}

type xmlHub struct {
	Name string `xml:"name,attr"`
	URL  string `xml:",chardata"`
}

type xmlChecksum struct {
	FileType string `xml:"fileType,attr"`
	SHA1     string `xml:",chardata"`
}

type xmlFileInfo struct {
	RepositoryID    string        `xml:"repository"`
	CrawlDate       string        `xml:"crawlDate,omitempty"`
	ConversionTrace string        `xml:"conversionTrace,omitempty"`
	URLs            []string      `xml:"urls>url"`
	Hubs            []xmlHub      `xml:"hubs>hub"`
	Checksums       []xmlChecksum `xml:"checksums>checksum"`
}

type xmlDocument struct {
	XMLName       xml.Name `xml:"document"`
	FormatVersion int      `xml:"formatVersion,attr"`

	DOI         string `xml:"doi"`
	State       int    `xml:"state"`
	ClusterID   *int64 `xml:"cluster,omitempty"`
	NCites      int    `xml:"ncites"`
	SelfCites   int    `xml:"selfCites"`
	Version     int    `xml:"version"`
	VersionName string `xml:"versionName,omitempty"`
	VersionTime string `xml:"versionTime,omitempty"`

	Corrected xmlFields  `xml:"corrected"`
	Source    *xmlSource `xml:"source,omitempty"`

	FileInfo xmlFileInfo `xml:"fileInfo"`

	Authors         []xmlAuthor   `xml:"authors>author"`
	Citations       []xmlCitation `xml:"citations>citation"`
	Acknowledgments []xmlAck      `xml:"acknowledgments>acknowledgment"`
	Keywords        []string      `xml:"keywords>keyword"`
	Tags            []xmlTag      `xml:"tags>tag"`
	Links           []xmlLink     `xml:"links>link"`
}

const xmlFormatVersion = 1

// ToXML writes the full document representation, including internal
// bookkeeping fields, to w.
func (d *Document) ToXML(w io.Writer) error {
	wire := xmlDocument{
		FormatVersion: xmlFormatVersion,
		DOI:           d.DOI,
		State:         int(d.State),
		ClusterID:     d.ClusterID,
		NCites:        d.NCites,
		SelfCites:     d.SelfCites,
		Version:       d.Version,
		VersionName:   d.VersionName,
		Corrected:     fieldsToXML(d.Corrected),
		FileInfo: xmlFileInfo{
			RepositoryID:    d.FileInfo.RepositoryID,
			ConversionTrace: d.FileInfo.ConversionTrace,
			URLs:            d.FileInfo.URLs,
		},
		Keywords: make([]string, 0, len(d.Keywords)),
	}
	if !d.VersionTime.IsZero() {
		wire.VersionTime = d.VersionTime.UTC().Format(xmlTimeLayout)
	}
	if !d.FileInfo.CrawlDate.IsZero() {
		wire.FileInfo.CrawlDate = d.FileInfo.CrawlDate.UTC().Format(xmlTimeLayout)
	}
	if d.Source != nil {
		wire.Source = &xmlSource{
			xmlFields: fieldsToXML(d.Source.Fields),
			Citations: d.Source.Citations,
		}
	}
	for _, h := range d.FileInfo.Hubs {
		wire.FileInfo.Hubs = append(wire.FileInfo.Hubs, xmlHub{Name: h.Name, URL: h.URL})
	}
	for _, c := range d.FileInfo.Checksums {
		wire.FileInfo.Checksums = append(wire.FileInfo.Checksums,
			xmlChecksum{FileType: c.FileType, SHA1: c.SHA1})
	}
	for _, a := range d.Authors {
		wire.Authors = append(wire.Authors, xmlAuthor{
			Name:        a.Name,
			Affiliation: a.Affiliation,
			Address:     a.Address,
			Email:       a.Email,
			Ord:         a.Ord,
			ClusterID:   a.ClusterID,
		})
	}
	for _, c := range d.Citations {
		wire.Citations = append(wire.Citations, xmlCitation{
			Raw:       c.Raw,
			Title:     c.Title,
			Venue:     c.Venue,
			Year:      c.Year,
			Authors:   c.Authors,
			Self:      c.Self,
			ClusterID: c.ClusterID,
			Contexts:  c.Contexts,
		})
	}
	for _, a := range d.Acknowledgments {
		wire.Acknowledgments = append(wire.Acknowledgments, xmlAck{
			Name:      a.Name,
			AckType:   a.AckType,
			ClusterID: a.ClusterID,
			Contexts:  a.Contexts,
		})
	}
	for _, k := range d.Keywords {
		wire.Keywords = append(wire.Keywords, k.Keyword)
	}
	for _, t := range d.Tags {
		wire.Tags = append(wire.Tags, xmlTag{Name: t.Name, Count: t.Count})
	}
	for _, l := range d.Links {
		wire.Links = append(wire.Links, xmlLink{Label: l.Label, URL: l.URL})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(&wire); err != nil {
		return fmt.Errorf("encoding document %s: %w", d.DOI, err)
	}
	return enc.Close()
}

// FromXML parses a document body from r. Parse failures return
// ErrMalformedBody wrapped with detail.
func FromXML(r io.Reader) (*Document, error) {
	var wire xmlDocument
	if err := xml.NewDecoder(r).Decode(&wire); err != nil {
		return nil, NewError("FromXML", ErrMalformedBody, err.Error())
	}
	if wire.DOI == "" {
		return nil, NewError("FromXML", ErrMalformedBody, "missing doi element")
	}

	doc := &Document{
		DOI:         wire.DOI,
		State:       State(wire.State),
		ClusterID:   wire.ClusterID,
		NCites:      wire.NCites,
		SelfCites:   wire.SelfCites,
		Version:     wire.Version,
		VersionName: wire.VersionName,
		Corrected:   fieldsFromXML(wire.Corrected),
		FileInfo: FileInfo{
			RepositoryID:    wire.FileInfo.RepositoryID,
			ConversionTrace: wire.FileInfo.ConversionTrace,
			URLs:            wire.FileInfo.URLs,
		},
	}
	if wire.VersionTime != "" {
		t, err := time.Parse(xmlTimeLayout, wire.VersionTime)
		if err != nil {
			return nil, NewError("FromXML", ErrMalformedBody, "bad versionTime: "+err.Error())
		}
		doc.VersionTime = t
	}
	if wire.FileInfo.CrawlDate != "" {
		t, err := time.Parse(xmlTimeLayout, wire.FileInfo.CrawlDate)
		if err != nil {
			return nil, NewError("FromXML", ErrMalformedBody, "bad crawlDate: "+err.Error())
		}
		doc.FileInfo.CrawlDate = t
	}
	if wire.Source != nil {
		doc.Source = &SourceFields{
			Fields:    fieldsFromXML(wire.Source.xmlFields),
			Citations: wire.Source.Citations,
		}
	}
	for _, h := range wire.FileInfo.Hubs {
		doc.FileInfo.Hubs = append(doc.FileInfo.Hubs, Hub{Name: h.Name, URL: h.URL})
	}
	for _, c := range wire.FileInfo.Checksums {
		doc.FileInfo.Checksums = append(doc.FileInfo.Checksums,
			Checksum{FileType: c.FileType, SHA1: c.SHA1})
	}
	for _, a := range wire.Authors {
		doc.Authors = append(doc.Authors, Author{
			Name:        a.Name,
			Affiliation: a.Affiliation,
			Address:     a.Address,
			Email:       a.Email,
			Ord:         a.Ord,
			ClusterID:   a.ClusterID,
		})
	}
	for _, c := range wire.Citations {
		doc.Citations = append(doc.Citations, Citation{
			Raw:       c.Raw,
			Title:     c.Title,
			Venue:     c.Venue,
			Year:      c.Year,
			Authors:   c.Authors,
			Self:      c.Self,
			ClusterID: c.ClusterID,
			Contexts:  c.Contexts,
		})
	}
	for _, a := range wire.Acknowledgments {
		doc.Acknowledgments = append(doc.Acknowledgments, Acknowledgment{
			Name:      a.Name,
			AckType:   a.AckType,
			ClusterID: a.ClusterID,
			Contexts:  a.Contexts,
		})
	}
	for _, k := range wire.Keywords {
		doc.Keywords = append(doc.Keywords, Keyword{Keyword: k})
	}
	for _, t := range wire.Tags {
		doc.Tags = append(doc.Tags, Tag{Name: t.Name, Count: t.Count})
	}
	for _, l := range wire.Links {
		doc.Links = append(doc.Links, ExternalLink{Label: l.Label, URL: l.URL})
	}
	return doc, nil
}

func fieldsToXML(f Fields) xmlFields {
	return xmlFields{
		Title:      f.Title,
		Abstract:   f.Abstract,
		Year:       f.Year,
		Venue:      f.Venue,
		VenueType:  f.VenueType,
		Pages:      f.Pages,
		Volume:     f.Volume,
		Number:     f.Number,
		Publisher:  f.Publisher,
		PubAddress: f.PubAddress,
		Tech:       f.Tech,
	}
}

func fieldsFromXML(f xmlFields) Fields {
	return Fields{
		Title:      f.Title,
		Abstract:   f.Abstract,
		Year:       f.Year,
		Venue:      f.Venue,
		VenueType:  f.VenueType,
		Pages:      f.Pages,
		Volume:     f.Volume,
		Number:     f.Number,
		Publisher:  f.Publisher,
		PubAddress: f.PubAddress,
		Tech:       f.Tech,
	}
}
