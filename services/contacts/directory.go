package contacts

import "strings"

// Resolver maps human names to email addresses.
type Resolver interface {
	Resolve(names []string) []string
}

// Directory is a static name → email table loaded from configuration.
// Lookups ignore case and surrounding whitespace.
type Directory struct {
	entries map[string]string
}

func NewDirectory(table map[string]string) *Directory {
	entries := make(map[string]string, len(table))
	for name, addr := range table {
		key := normalize(name)
		addr = strings.TrimSpace(addr)
		if key == "" || addr == "" {
			continue
		}
		entries[key] = addr
	}
	return &Directory{entries: entries}
}

// Resolve returns the addresses found for names, in input order. Unknown
// names are skipped.
func (d *Directory) Resolve(names []string) []string {
	var out []string
	for _, n := range names {
		if addr, ok := d.entries[normalize(n)]; ok {
			out = append(out, addr)
		}
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
