package gamification

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultCareerID is used when a plan has no career or an unknown one
const DefaultCareerID = "fiscal"

// Career is a named track with six rank titles, lowest first
type Career struct {
	ID    string    `yaml:"id"`
	Label string    `yaml:"label"`
	Ranks [6]string `yaml:"ranks"`
}

// Careers is the lookup table of career tracks
type Careers struct {
	byID      map[string]Career
	defaultID string
}

// DefaultCareers returns the built-in tracks
func DefaultCareers() *Careers {
	c := &Careers{byID: make(map[string]Career), defaultID: DefaultCareerID}
	for _, career := range builtinCareers {
		c.byID[career.ID] = career
	}
	return c
}

var builtinCareers = []Career{
	{ID: "fiscal", Label: "🦁 Área Fiscal", Ranks: [6]string{"Concurseiro", "Analista", "Auditor Jr.", "Auditor Fiscal", "Superintendente", "Auditor-Geral"}},
	{ID: "policial", Label: "👮 Segurança Pública", Ranks: [6]string{"Cadete", "Operacional", "Agente Especial", "Comissário", "Superintendente", "Diretor-Geral"}},
	{ID: "saude", Label: "🏥 Área Saúde", Ranks: [6]string{"Acadêmico", "Interno", "Residente", "Especialista", "Titular", "Diretor Clínico"}},
	{ID: "juridica", Label: "⚖️ Área Jurídica", Ranks: [6]string{"Estagiário", "Bacharel", "Advogado", "Juiz", "Desembargador", "Ministro"}},
	{ID: "bancaria", Label: "🏦 Bancária & Gestão", Ranks: [6]string{"Estagiário", "Escriturário", "Gerente", "Superintendente", "Diretor", "Presidente"}},
	{ID: "ti", Label: "💻 Tecnologia (TI)", Ranks: [6]string{"Junior", "Pleno", "Senior", "Tech Lead", "Arquiteto", "CTO"}},
	{ID: "diplomacia", Label: "🌍 Diplomacia", Ranks: [6]string{"Candidato", "3º Secretário", "2º Secretário", "Conselheiro", "Embaixador", "Chanceler"}},
	{ID: "vestibular", Label: "🎓 Vestibular/ENEM", Ranks: [6]string{"Treineiro", "Vestibulando", "Candidato", "Competitivo", "Gabaritador", "Universitário"}},
}

// Lookup returns the career for id, falling back to the default career
func (c *Careers) Lookup(id string) Career {
	if career, ok := c.byID[id]; ok {
		return career
	}
	return c.byID[c.defaultID]
}

// Has reports whether id names a known career
func (c *Careers) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// DefaultID returns the fallback career id
func (c *Careers) DefaultID() string {
	return c.defaultID
}

// All returns the careers sorted by id
func (c *Careers) All() []Career {
	out := make([]Career, 0, len(c.byID))
	for _, career := range c.byID {
		out = append(out, career)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type careersFile struct {
	Default string   `yaml:"default"`
	Careers []Career `yaml:"careers"`
}

// LoadCareers reads extra careers from a YAML file and merges them over the
// built-in ones. An empty path returns the built-in table.
//
//	default: ti
//	careers:
//	  - id: ti
//	    label: Tech
//	    ranks: [Intern, Junior, Pleno, Senior, Staff, Principal]
func LoadCareers(path string) (*Careers, error) {
	c := DefaultCareers()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read careers file: %w", err)
	}

	var f careersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse careers file: %w", err)
	}

	for _, career := range f.Careers {
		if career.ID == "" {
			return nil, fmt.Errorf("careers file: career without id")
		}
		for i, r := range career.Ranks {
			if r == "" {
				return nil, fmt.Errorf("careers file: career %q is missing rank %d", career.ID, i)
			}
		}
		c.byID[career.ID] = career
	}

	if f.Default != "" {
		if !c.Has(f.Default) {
			return nil, fmt.Errorf("careers file: unknown default career %q", f.Default)
		}
		c.defaultID = f.Default
	}

	return c, nil
}
