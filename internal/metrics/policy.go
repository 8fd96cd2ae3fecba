package metrics

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultRankOrder lists academic titles from most to least senior.
var DefaultRankOrder = []string{
	"Professor",
	"Research Professor",
	"Professor, Clinical",
	"Associate Professor",
	"Research Associate Professor",
	"Associate Professor, Clinical",
	"Assistant Professor",
	"Research Assistant Professor",
	"Assistant Professor, Clinical",
	"Instructor",
	"Instructor, Clinical",
	"Lecturer",
	"Adjunct Professor",
	"Adjunct Associate Professor",
	"Adjunct Assistant Professor",
	"Adjunct Instructor",
	"Adjunct Lecturer",
	"Professor Emeritus",
}

// DefaultPeerReviewedSubtypes are the Scopus subtype descriptions counted
// toward authorship metrics.
var DefaultPeerReviewedSubtypes = []string{
	"Article",
	"Book Chapter",
	"Review",
	"Short Survey",
}

// Policy holds the closed sets the pipeline filters and ranks by.
type Policy struct {
	RankOrder            []string `yaml:"rank_order"`
	PeerReviewedSubtypes []string `yaml:"peer_reviewed_subtypes"`

	rankIndex map[string]int
	subtypes  map[string]struct{}
}

// DefaultPolicy returns the built-in rank order and peer-reviewed subtypes.
func DefaultPolicy() *Policy {
	p := &Policy{
		RankOrder:            append([]string(nil), DefaultRankOrder...),
		PeerReviewedSubtypes: append([]string(nil), DefaultPeerReviewedSubtypes...),
	}
	p.index()
	return p
}

// NewPolicy builds a policy from explicit lists. Empty lists fall back to the defaults.
func NewPolicy(rankOrder, subtypes []string) *Policy {
	p := &Policy{RankOrder: rankOrder, PeerReviewedSubtypes: subtypes}
	if len(p.RankOrder) == 0 {
		p.RankOrder = append([]string(nil), DefaultRankOrder...)
	}
	if len(p.PeerReviewedSubtypes) == 0 {
		p.PeerReviewedSubtypes = append([]string(nil), DefaultPeerReviewedSubtypes...)
	}
	p.index()
	return p
}

// LoadPolicy reads a policy from a YAML file with a top-level "policy" key.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "policy: read %s", path)
	}

	var wrapper struct {
		Policy Policy `yaml:"policy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "policy: parse")
	}

	return NewPolicy(wrapper.Policy.RankOrder, wrapper.Policy.PeerReviewedSubtypes), nil
}

func (p *Policy) index() {
	p.rankIndex = make(map[string]int, len(p.RankOrder))
	for i, title := range p.RankOrder {
		title = strings.TrimSpace(title)
		if _, dup := p.rankIndex[title]; dup {
			continue
		}
		p.rankIndex[title] = i
	}
	p.subtypes = make(map[string]struct{}, len(p.PeerReviewedSubtypes))
	for _, s := range p.PeerReviewedSubtypes {
		p.subtypes[strings.TrimSpace(s)] = struct{}{}
	}
}

// RankIndex returns the seniority index of title (0 = most senior) and
// whether the title is ranked at all.
func (p *Policy) RankIndex(title string) (int, bool) {
	if p.rankIndex == nil {
		p.index()
	}
	idx, ok := p.rankIndex[strings.TrimSpace(title)]
	return idx, ok
}

// IsPeerReviewed reports whether subtype, trimmed, is in the peer-reviewed set.
func (p *Policy) IsPeerReviewed(subtype string) bool {
	if p.subtypes == nil {
		p.index()
	}
	subtype = strings.TrimSpace(subtype)
	if subtype == "" {
		return false
	}
	_, ok := p.subtypes[subtype]
	return ok
}
