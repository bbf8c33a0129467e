// Package genres holds the static TMDB genre id to display-name mapping.
// The table is built once and passed into whichever component needs
// genre-name resolution; there is no remote call behind it.
package genres

type Table map[int]string

// Default returns the pt-BR genre table the category UI is built around.
// Callers get their own copy so nobody can mutate a shared table.
func Default() Table {
	return Table{
		28:    "Ação",
		12:    "Aventura",
		16:    "Animação",
		35:    "Comédia",
		80:    "Crime",
		99:    "Documentário",
		18:    "Drama",
		10751: "Família",
		14:    "Fantasia",
		36:    "História",
		27:    "Terror",
		10402: "Música",
		9648:  "Mistério",
		10749: "Romance",
		878:   "Ficção Científica",
		10770: "Cinema TV",
		53:    "Thriller",
		10752: "Guerra",
		37:    "Faroeste",
	}
}

func (t Table) Name(id int) (string, bool) {
	name, ok := t[id]
	return name, ok
}

// Names resolves ids to display names, dropping ids the table does not know.
func (t Table) Names(ids []int) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := t[id]; ok {
			out = append(out, name)
		}
	}
	return out
}
