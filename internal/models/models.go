// Package models holds the canonical entities flowing through the
// pipeline: one small struct per entity, JSON tags for artifact
// serialization, no behavior beyond simple accessors.
package models

// DrugRole is the role code a drug plays on a report.
type DrugRole string

const (
	RolePrimarySuspect   DrugRole = "primary_suspect"
	RoleSecondarySuspect DrugRole = "secondary_suspect"
	RoleConcomitant      DrugRole = "concomitant"
	RoleInteracting      DrugRole = "interacting"
)

// DrugMention is one drug surface string on a raw report.
type DrugMention struct {
	Surface string
	Role    DrugRole
}

// ReportRecord is a raw case report as read from the archive, before
// canonicalization.
type ReportRecord struct {
	ReportID    string
	CaseID      string
	Version     int
	ReceivedAt  string // RFC3339; comparable lexicographically for tie-breaks
	Quarter     string // e.g. "2025Q2"
	Drugs       []DrugMention
	Reactions   []string
}

// Drug is a canonical drug identity, minted once by Normalize and immutable
// thereafter.
type Drug struct {
	DrugID        string   `json:"drug_id"`
	PreferredName string   `json:"preferred_name"`
	Synonyms      []string `json:"synonyms"`
	ExternalCode  string   `json:"external_code,omitempty"`
}

// Event is a canonical adverse-event identity.
type Event struct {
	EventID            string   `json:"event_id"`
	RepresentativeTerm string   `json:"representative_term"`
	SurfaceForms       []string `json:"surface_forms"`
}

// EventCluster groups near-duplicate events found by Embed. ClusterID is
// the event_id of a singleton cluster, or a synthetic "cluster:<n>" ID for
// a multi-member cluster — both are opaque strings, never reused across
// runs in a way that would change membership semantics.
type EventCluster struct {
	EventID               string  `json:"event_id"`
	ClusterID             string  `json:"cluster_id"`
	RepresentativeEventID string  `json:"representative_event_id"`
	Cohesion              float64 `json:"cohesion"`
}

// ContingencyCell is a single (drug, event, quarter) 2x2 table.
type ContingencyCell struct {
	DrugID      string `json:"drug_id"`
	EventID     string `json:"event_id"`
	YearQuarter string `json:"year_quarter"`
	A           int64  `json:"a"`
	B           int64  `json:"b"`
	C           int64  `json:"c"`
	D           int64  `json:"d"`
}

// AggregateKey aggregation marker used in place of a quarter value.
const AggregateKey = "ALL"

// NullReason explains why a SignalRow's statistics could not be computed.
type NullReason string

const (
	NullReasonNone              NullReason = ""
	NullReasonZeroMarginAB      NullReason = "zero_margin_a_b"
	NullReasonZeroMarginCD      NullReason = "zero_margin_c_d"
	NullReasonInsufficientQuarters NullReason = "insufficient_quarters"
)

// SignalRow is a derived disproportionality statistic for one
// (drug, event) pair, either for a single quarter or the ALL aggregation.
type SignalRow struct {
	DrugID         string     `json:"drug_id"`
	EventID        string     `json:"event_id"`
	YearQuarter    string     `json:"year_quarter"`
	A, B, C, D     int64      `json:"-"`
	ROR            float64    `json:"ror"`
	CILow          float64    `json:"ci_low"`
	CIHigh         float64    `json:"ci_high"`
	RORShrunk      float64    `json:"ror_shrunk"`
	NReports       int64      `json:"n_reports"`
	TrendZ         *float64   `json:"trend_z,omitempty"`
	TrendQuarters  int        `json:"trend_quarters"`
	BelowThreshold bool       `json:"below_threshold"`
	NullReason     NullReason `json:"null_reason,omitempty"`
}

// Polarity is the asserted/negated/uncertain classification of a mention.
type Polarity string

const (
	PolarityAsserted  Polarity = "asserted"
	PolarityNegated   Polarity = "negated"
	PolarityUncertain Polarity = "uncertain"
)

// RelationMention is one drug/event co-occurrence found in a literature
// sentence by Extract.
type RelationMention struct {
	SentenceID   string   `json:"sentence_id"`
	PMID         string   `json:"pmid"`
	DrugMention  string   `json:"drug_mention"`
	EventMention string   `json:"event_mention"`
	DrugID       string   `json:"drug_id"`
	EventID      string   `json:"event_id"`
	Confidence   float64  `json:"confidence"`
	Polarity     Polarity `json:"polarity"`
	Year         int      `json:"year,omitempty"`
}

// LiteratureSupport aggregates RelationMentions for one (drug, event) pair.
type LiteratureSupport struct {
	DrugID         string  `json:"drug_id"`
	EventID        string  `json:"event_id"`
	NMentions      int     `json:"n_mentions"`
	SumConfidence  float64 `json:"sum_confidence"`
	RecentFraction float64 `json:"recent_fraction"`
}

// MeanConfidence returns SumConfidence/NMentions, or 0 when there are no
// mentions.
func (l LiteratureSupport) MeanConfidence() float64 {
	if l.NMentions == 0 {
		return 0
	}
	return l.SumConfidence / float64(l.NMentions)
}

// RankedSignal is a SignalRow augmented with the fused ranking features and
// final score, ready for CSV export.
type RankedSignal struct {
	Rank        int
	DrugID      string
	DrugName    string
	EventID     string
	EventTerm   string
	A           int64
	ROR         float64
	CILow       float64
	CIHigh      float64
	RORShrunk   float64
	NQuarters   int
	TrendZ      *float64
	LitMentions int
	FinalScore  float64
}
