package models

// Dependent-entity rows. Each is owned by exactly one paper through its
// DOI and follows the paper's lifecycle: updates delete the full set
// and reinsert, never merge.

// Author is one byline entry of a paper.
type Author struct {
	ID  uint   `gorm:"primaryKey"`
	DOI string `gorm:"size:100;not null;index"`

	Name        string `gorm:"not null"`
	Affiliation string
	Address     string
	Email       string
	Ord         int    `gorm:"column:ord;not null;default:0"`
	ClusterID   *int64 `gorm:"index"`
}

// TableName specifies the table name.
func (Author) TableName() string {
	return "authors"
}

// Citation is one reference extracted from a paper body.
type Citation struct {
	ID  uint   `gorm:"primaryKey"`
	DOI string `gorm:"size:100;not null;index"`

	Raw     string `gorm:"type:text"`
	Title   string `gorm:"type:text"`
	Venue   string
	Year    string
	Authors string `gorm:"type:text"` // semicolon-joined author list
	Self    bool   `gorm:"not null;default:false"`

	ClusterID *int64 `gorm:"index"`

	Contexts []CitationContext `gorm:"foreignKey:CitationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name.
func (Citation) TableName() string {
	return "citations"
}

// CitationContext is one text snippet where a citation appears.
type CitationContext struct {
	ID         uint   `gorm:"primaryKey"`
	CitationID uint   `gorm:"not null;index"`
	Context    string `gorm:"type:text"`
}

// TableName specifies the table name.
func (CitationContext) TableName() string {
	return "citation_contexts"
}

// Acknowledgment is one acknowledged entity of a paper.
type Acknowledgment struct {
	ID  uint   `gorm:"primaryKey"`
	DOI string `gorm:"size:100;not null;index"`

	Name      string `gorm:"not null"`
	AckType   string
	ClusterID *int64 `gorm:"index"`

	Contexts []AckContext `gorm:"foreignKey:AcknowledgmentID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name.
func (Acknowledgment) TableName() string {
	return "acknowledgments"
}

// AckContext is one text snippet where an acknowledgment appears.
type AckContext struct {
	ID               uint   `gorm:"primaryKey"`
	AcknowledgmentID uint   `gorm:"not null;index"`
	Context          string `gorm:"type:text"`
}

// TableName specifies the table name.
func (AckContext) TableName() string {
	return "ack_contexts"
}

// Keyword is one author-supplied keyword of a paper.
type Keyword struct {
	ID      uint   `gorm:"primaryKey"`
	DOI     string `gorm:"size:100;not null;index"`
	Keyword string `gorm:"not null"`
}

// TableName specifies the table name.
func (Keyword) TableName() string {
	return "keywords"
}

// Tag is a user-applied tag with the number of users who applied it.
type Tag struct {
	ID    uint   `gorm:"primaryKey"`
	DOI   string `gorm:"size:100;not null;uniqueIndex:idx_tags_doi_tag,priority:1"`
	Tag   string `gorm:"not null;uniqueIndex:idx_tags_doi_tag,priority:2"`
	Count int    `gorm:"not null;default:1"`
}

// TableName specifies the table name.
func (Tag) TableName() string {
	return "tags"
}

// ExternalLink points from a paper to a related external resource.
type ExternalLink struct {
	ID    uint   `gorm:"primaryKey"`
	DOI   string `gorm:"size:100;not null;index"`
	Label string `gorm:"not null"`
	URL   string `gorm:"size:500;not null"`
}

// TableName specifies the table name.
func (ExternalLink) TableName() string {
	return "external_links"
}

// Checksum is a content checksum recorded at crawl time.
type Checksum struct {
	ID       uint   `gorm:"primaryKey"`
	DOI      string `gorm:"size:100;not null;index"`
	SHA1     string `gorm:"column:sha1;size:40;not null;index"`
	FileType string
}

// TableName specifies the table name.
func (Checksum) TableName() string {
	return "checksums"
}
