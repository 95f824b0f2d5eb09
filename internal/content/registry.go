// internal/content/registry.go
// Package content holds the industry-keyed prompts, narratives and resource catalogs
// that tailor the assessment to an industry.
package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"aiq-assessment/internal/assessment"
	"aiq-assessment/internal/common/errors"
)

//go:embed packs/*.json
var embeddedPacks embed.FS

// Prompt is the industry-specific survey question for one capability.
type Prompt struct {
	CapabilityID string              `json:"capabilityId"`
	Industry     assessment.Industry `json:"industry"`
	Prompt       string              `json:"prompt"`
	HelperText   string              `json:"helperText"`
}

// Narrative is the report copy for a (category, tier) pair.
type Narrative struct {
	Industry assessment.Industry `json:"industry"`
	Category assessment.Category `json:"category"`
	Tier     assessment.Tier     `json:"tier"`
	Headline string              `json:"headline"`
	Body     string              `json:"body"`
}

// IndustryContent is one industry pack. Values handed out by the Registry are shared
// and must not be modified.
type IndustryContent struct {
	Industry    assessment.Industry   `json:"industry"`
	DisplayName string                `json:"displayName"`
	Prompts     []Prompt              `json:"prompts"`
	Narratives  []Narrative           `json:"narratives"`
	Resources   []assessment.Resource `json:"resources"`
}

// IndustryInfo identifies an available industry.
type IndustryInfo struct {
	ID          assessment.Industry `json:"id"`
	DisplayName string              `json:"displayName"`
}

// ResourceFilter narrows GetResources. Zero values disable a filter.
type ResourceFilter struct {
	CapabilityIDs []string
	MaturityTier  assessment.Tier
	Limit         int
}

// Registry is the immutable set of industry packs loaded at startup.
type Registry struct {
	packs map[assessment.Industry]*IndustryContent
}

// Load reads the packs compiled into the binary.
func Load() (*Registry, error) {
	return LoadFS(embeddedPacks, "packs/*.json")
}

// LoadDir reads every *.json pack in dir, replacing the compiled-in packs.
func LoadDir(fsys fs.FS) (*Registry, error) {
	return LoadFS(fsys, "*.json")
}

// LoadFS reads and schema-checks every pack matching pattern in fsys.
// Completeness is reported separately by Validate.
func LoadFS(fsys fs.FS, pattern string) (*Registry, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list content packs: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.NewContentInvalidError(fmt.Sprintf("no content packs match %q", pattern))
	}

	packs := make([]*IndustryContent, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read content pack %s: %w", name, err)
		}

		if err := validatePackDocument(path.Base(name), data); err != nil {
			return nil, errors.NewContentInvalidError(err.Error())
		}

		var pack IndustryContent
		if err := json.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("failed to decode content pack %s: %w", name, err)
		}
		packs = append(packs, &pack)
	}

	return NewRegistry(packs...)
}

// NewRegistry builds a registry from already decoded packs. Duplicate industries are rejected.
func NewRegistry(packs ...*IndustryContent) (*Registry, error) {
	r := &Registry{packs: make(map[assessment.Industry]*IndustryContent, len(packs))}
	for _, p := range packs {
		if _, exists := r.packs[p.Industry]; exists {
			return nil, errors.NewContentInvalidError(fmt.Sprintf("duplicate content pack for industry '%s'", p.Industry))
		}
		r.packs[p.Industry] = p
	}
	return r, nil
}

// ParseIndustry resolves a case-insensitive industry name against the loaded packs.
func (r *Registry) ParseIndustry(name string) (assessment.Industry, bool) {
	industry := assessment.Industry(strings.ToLower(strings.TrimSpace(name)))
	_, ok := r.packs[industry]
	return industry, ok
}

// GetIndustryContent returns the full pack for industry.
func (r *Registry) GetIndustryContent(industry assessment.Industry) (*IndustryContent, error) {
	pack, ok := r.packs[industry]
	if !ok {
		return nil, errors.NewContentNotFoundError(string(industry))
	}
	return pack, nil
}

// GetCapabilityPrompt returns the prompt for one capability.
func (r *Registry) GetCapabilityPrompt(industry assessment.Industry, capabilityID string) (Prompt, bool) {
	pack, ok := r.packs[industry]
	if !ok {
		return Prompt{}, false
	}
	for _, p := range pack.Prompts {
		if p.CapabilityID == capabilityID {
			return p, true
		}
	}
	return Prompt{}, false
}

// GetOrderedPrompts returns one prompt per capability in survey order.
func (r *Registry) GetOrderedPrompts(industry assessment.Industry) ([]Prompt, error) {
	if _, ok := r.packs[industry]; !ok {
		return []Prompt{}, nil
	}

	caps := assessment.Capabilities()
	out := make([]Prompt, 0, len(caps))
	for _, c := range caps {
		p, ok := r.GetCapabilityPrompt(industry, c.ID)
		if !ok {
			return nil, errors.NewContentInvalidError(missingPrompt(c.ID, industry))
		}
		out = append(out, p)
	}
	return out, nil
}

// GetNarrative returns the narrative for a (category, tier) pair.
func (r *Registry) GetNarrative(industry assessment.Industry, category assessment.Category, tier assessment.Tier) (Narrative, bool) {
	pack, ok := r.packs[industry]
	if !ok {
		return Narrative{}, false
	}
	for _, n := range pack.Narratives {
		if n.Category == category && n.Tier == tier {
			return n, true
		}
	}
	return Narrative{}, false
}

// GetNarratives returns every narrative of an industry.
func (r *Registry) GetNarratives(industry assessment.Industry) []Narrative {
	pack, ok := r.packs[industry]
	if !ok {
		return []Narrative{}
	}
	return pack.Narratives
}

// Resources returns the industry catalog in curated order.
func (r *Registry) Resources(industry assessment.Industry) []assessment.Resource {
	pack, ok := r.packs[industry]
	if !ok {
		return nil
	}
	return pack.Resources
}

// GetResources filters the industry catalog. Catalog order is preserved.
func (r *Registry) GetResources(industry assessment.Industry, filter ResourceFilter) []assessment.Resource {
	out := []assessment.Resource{}
	for _, res := range r.Resources(industry) {
		if len(filter.CapabilityIDs) > 0 && !coversAny(res, filter.CapabilityIDs) {
			continue
		}
		if filter.MaturityTier != "" && !res.TargetsTier(filter.MaturityTier) {
			continue
		}
		out = append(out, res)
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// AvailableIndustries lists loaded industries sorted by id.
func (r *Registry) AvailableIndustries() []IndustryInfo {
	out := make([]IndustryInfo, 0, len(r.packs))
	for id, p := range r.packs {
		out = append(out, IndustryInfo{ID: id, DisplayName: p.DisplayName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Validate reports every supported industry without a pack and every missing prompt and
// narrative across the loaded packs. An empty slice means the content is complete.
func (r *Registry) Validate() []string {
	problems := []string{}

	for _, industry := range assessment.SupportedIndustries {
		if _, ok := r.packs[industry]; !ok {
			problems = append(problems, fmt.Sprintf("Missing content pack for industry '%s'", industry))
		}
	}

	for _, info := range r.AvailableIndustries() {
		industry := info.ID

		for _, c := range assessment.Capabilities() {
			if _, ok := r.GetCapabilityPrompt(industry, c.ID); !ok {
				problems = append(problems, missingPrompt(c.ID, industry))
			}
		}

		for _, category := range assessment.Categories() {
			for _, tier := range assessment.Tiers() {
				if _, ok := r.GetNarrative(industry, category, tier); !ok {
					problems = append(problems, fmt.Sprintf(
						"Missing narrative for category '%s', tier '%s' in industry '%s'",
						category, tier, industry,
					))
				}
			}
		}
	}

	return problems
}

func missingPrompt(capabilityID string, industry assessment.Industry) string {
	return fmt.Sprintf("Missing prompt for capability '%s' in industry '%s'", capabilityID, industry)
}

func coversAny(res assessment.Resource, ids []string) bool {
	for _, id := range ids {
		if res.CoversCapability(id) {
			return true
		}
	}
	return false
}
