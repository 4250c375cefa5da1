package category

import (
	"encoding/json"
	"fmt"
	"io"
)

// Other is the fallback category when nothing clears the confidence floor.
const Other = "outros"

type Category struct {
	Name        string   `json:"name"`
	Keywords    []string `json:"keywords"`
	SearchTerms []string `json:"searchTerms"`
	Priority    int      `json:"priority"`
}

// Table is the static category/region configuration. It is data, not logic.
type Table struct {
	Categories    []Category          `json:"categories"`
	Regions       []string            `json:"regions"`
	NationalTerms []string            `json:"nationalTerms"`
	Tags          map[string][]string `json:"tags"`
}

func (t Table) Names() []string {
	names := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		names = append(names, c.Name)
	}
	return names
}

func (t Table) Lookup(name string) (Category, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// LoadTable decodes a JSON table and checks every category is named.
func LoadTable(r io.Reader) (Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Table{}, fmt.Errorf("decode category table: %w", err)
	}
	for i, c := range t.Categories {
		if c.Name == "" {
			return Table{}, fmt.Errorf("category table: entry %d has no name", i)
		}
	}
	return t, nil
}

// DefaultTable is the built-in Brazilian event taxonomy.
func DefaultTable() Table {
	return Table{
		Categories: []Category{
			{
				Name:        "shows",
				Keywords:    []string{"show", "shows", "rock", "samba", "pagode", "sertanejo", "mpb", "funk", "jazz", "banda", "cantor", "cantora", "turne", "concerto", "musica", "ao vivo"},
				SearchTerms: []string{"shows", "musica ao vivo"},
				Priority:    10,
			},
			{
				Name:        "festas",
				Keywords:    []string{"festa", "balada", "rave", "open bar", "dj", "carnaval", "bloco", "reveillon", "after"},
				SearchTerms: []string{"festas", "baladas"},
				Priority:    8,
			},
			{
				Name:        "teatro",
				Keywords:    []string{"teatro", "peca", "espetaculo", "stand-up", "standup", "comedia", "humor", "musical", "danca", "ballet"},
				SearchTerms: []string{"teatro", "stand up"},
				Priority:    7,
			},
			{
				Name:        "esportes",
				Keywords:    []string{"corrida", "maratona", "futebol", "jogo", "campeonato", "torneio", "luta", "ciclismo", "esporte", "yoga"},
				SearchTerms: []string{"esportes", "corrida"},
				Priority:    6,
			},
			{
				Name:        "gastronomia",
				Keywords:    []string{"gastronomia", "food", "cerveja", "vinho", "degustacao", "jantar", "feira gastronomica", "chef", "churrasco"},
				SearchTerms: []string{"gastronomia", "festival gastronomico"},
				Priority:    5,
			},
			{
				Name:        "cursos",
				Keywords:    []string{"curso", "workshop", "palestra", "oficina", "treinamento", "aula", "seminario", "congresso", "conferencia", "meetup"},
				SearchTerms: []string{"cursos", "workshops"},
				Priority:    4,
			},
			{
				Name:        "infantil",
				Keywords:    []string{"infantil", "criancas", "crianca", "kids", "familia", "teatro infantil"},
				SearchTerms: []string{"infantil"},
				Priority:    3,
			},
			{
				Name:        "arte",
				Keywords:    []string{"exposicao", "arte", "museu", "galeria", "mostra", "cinema", "filme", "fotografia"},
				SearchTerms: []string{"exposicoes", "arte"},
				Priority:    2,
			},
		},
		Regions:       []string{"sao paulo", "rio de janeiro", "belo horizonte", "porto alegre", "curitiba"},
		NationalTerms: []string{"turne nacional", "festival"},
		Tags: map[string][]string{
			"gratuito":    {"gratis", "gratuito", "gratuita", "free", "entrada franca"},
			"ao-ar-livre": {"ao ar livre", "outdoor", "parque", "praia"},
			"familia":     {"familia", "criancas", "kids", "infantil"},
			"online":      {"online", "live", "transmissao", "virtual"},
			"adulto":      {"18+", "+18", "maiores de 18", "adulto"},
			"acessivel":   {"acessivel", "libras", "audiodescricao"},
			"festival":    {"festival"},
			"open-bar":    {"open bar"},
		},
	}
}
