package catalog

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// fileEntry is the on-disk form of an Entry.
type fileEntry struct {
	Name    string   `toml:"name"`
	Type    string   `toml:"type"`
	Aliases []string `toml:"aliases"`
}

// fileFormat is the catalog file layout:
//
//	[[field]]
//	name = "code"
//	type = "text"
//	aliases = ["产品代码", "基金代码"]
type fileFormat struct {
	Fields []fileEntry `toml:"field"`
}

// Load reads and validates a TOML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a TOML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var ff fileFormat
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ff); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	entries := make([]Entry, 0, len(ff.Fields))
	for _, fe := range ff.Fields {
		ft, err := ParseFieldType(fe.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fe.Name, err)
		}
		entries = append(entries, Entry{
			Field:   Field(fe.Name),
			Type:    ft,
			Aliases: fe.Aliases,
		})
	}
	return New(entries)
}

// Marshal encodes c as a TOML catalog document that Parse accepts.
func Marshal(c *Catalog) ([]byte, error) {
	ff := fileFormat{Fields: make([]fileEntry, 0, c.Len())}
	for _, e := range c.entries {
		ff.Fields = append(ff.Fields, fileEntry{
			Name:    string(e.Field),
			Type:    e.Type.String(),
			Aliases: e.Aliases,
		})
	}
	data, err := toml.Marshal(ff)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return data, nil
}
