package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

type document struct {
	Items    []itemDoc    `yaml:"items"`
	Families []familyDoc  `yaml:"families"`
	Stations []stationDoc `yaml:"stations"`
	Actors   []actorDoc   `yaml:"actors"`
}

type itemDoc struct {
	ID          int      `yaml:"id"`
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Tags        []string `yaml:"tags"`
	WorldObject bool     `yaml:"world_object"`
	Tool        bool     `yaml:"tool"`
	Hidden      bool     `yaml:"hidden"`
}

type familyDoc struct {
	ID               string       `yaml:"id"`
	Name             string       `yaml:"name"`
	LaborCalories    float64      `yaml:"labor_calories"`
	CraftableDefault *bool        `yaml:"craftable_default"`
	RequiredSkills   []skillDoc   `yaml:"required_skills"`
	Variants         []variantDoc `yaml:"variants"`
}

type skillDoc struct {
	Skill string `yaml:"skill"`
	Level int    `yaml:"level"`
}

type variantDoc struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Ingredients []elementDoc `yaml:"ingredients"`
	Products    []elementDoc `yaml:"products"`
}

type elementDoc struct {
	Item   string  `yaml:"item"`
	Tag    string  `yaml:"tag"`
	Amount float64 `yaml:"amount"`
	Static bool    `yaml:"static"`
}

type stationDoc struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	ResourceEfficiency float64  `yaml:"resource_efficiency"`
	Families           []string `yaml:"families"`
}

type actorDoc struct {
	ID                 int64          `yaml:"id"`
	Name               string         `yaml:"name"`
	Skills             map[string]int `yaml:"skills"`
	LaborMultiplier    float64        `yaml:"labor_multiplier"`
	ResourceMultiplier float64        `yaml:"resource_multiplier"`
	Stations           []string       `yaml:"stations"`
}

var documentSchema = jsonschema.MustCompileString("catalog.schema.json", schemaJSON)

// Load reads and validates a YAML world catalog.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse validates raw YAML against the catalog schema and builds a Catalog.
func Parse(raw []byte) (*Catalog, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return build(doc)
}

func validate(raw []byte) error {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	// The schema validator wants JSON values, so round trip through encoding/json.
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("convert catalog to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(asJSON))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("convert catalog to json: %w", err)
	}
	if err := documentSchema.Validate(v); err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	return nil
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{
		byID:    make(map[ItemID]int, len(doc.Items)),
		byName:  make(map[string]ItemID, len(doc.Items)),
		tagged:  make(map[string][]ItemID),
		station: make(map[string]*Station, len(doc.Stations)),
		actors:  make(map[int64]Actor, len(doc.Actors)),
	}

	for _, d := range doc.Items {
		id := ItemID(d.ID)
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("item %d: duplicate id", d.ID)
		}
		key := strings.ToLower(d.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("item %q: duplicate name", d.Name)
		}
		c.byID[id] = len(c.items)
		c.byName[key] = id
		c.items = append(c.items, Item{
			ID:          id,
			Name:        d.Name,
			DisplayName: d.DisplayName,
			Tags:        d.Tags,
			WorldObject: d.WorldObject,
			Tool:        d.Tool,
			Hidden:      d.Hidden,
		})
		for _, tag := range d.Tags {
			c.tagged[tag] = append(c.tagged[tag], id)
		}
	}

	families := make(map[string]*Family, len(doc.Families))
	for _, fd := range doc.Families {
		if _, dup := families[fd.ID]; dup {
			return nil, fmt.Errorf("family %q: duplicate id", fd.ID)
		}
		f := &Family{
			ID:               fd.ID,
			Name:             fd.Name,
			LaborCalories:    fd.LaborCalories,
			CraftableDefault: fd.CraftableDefault == nil || *fd.CraftableDefault,
		}
		if f.Name == "" {
			f.Name = f.ID
		}
		for _, s := range fd.RequiredSkills {
			f.RequiredSkills = append(f.RequiredSkills, SkillRequirement{Skill: s.Skill, Level: s.Level})
		}
		for _, vd := range fd.Variants {
			v, err := c.buildVariant(f, vd)
			if err != nil {
				return nil, fmt.Errorf("family %q: %w", fd.ID, err)
			}
			f.Variants = append(f.Variants, v)
		}
		families[f.ID] = f
		c.families = append(c.families, f)
	}

	for _, sd := range doc.Stations {
		if _, dup := c.station[sd.ID]; dup {
			return nil, fmt.Errorf("station %q: duplicate id", sd.ID)
		}
		s := &Station{ID: sd.ID, Name: sd.Name, ResourceEfficiency: sd.ResourceEfficiency}
		if s.Name == "" {
			s.Name = s.ID
		}
		if s.ResourceEfficiency == 0 {
			s.ResourceEfficiency = 1
		}
		for _, fid := range sd.Families {
			f, ok := families[fid]
			if !ok {
				return nil, fmt.Errorf("station %q: unknown family %q", sd.ID, fid)
			}
			s.Families = append(s.Families, f)
		}
		c.station[s.ID] = s
		c.stations = append(c.stations, s)
	}

	for _, ad := range doc.Actors {
		if _, dup := c.actors[ad.ID]; dup {
			return nil, fmt.Errorf("actor %d: duplicate id", ad.ID)
		}
		for _, sid := range ad.Stations {
			if _, ok := c.station[sid]; !ok {
				return nil, fmt.Errorf("actor %d: unknown station %q", ad.ID, sid)
			}
		}
		a := Actor{
			ID:                 ad.ID,
			Name:               ad.Name,
			Skills:             ad.Skills,
			LaborMultiplier:    ad.LaborMultiplier,
			ResourceMultiplier: ad.ResourceMultiplier,
			Stations:           ad.Stations,
		}
		if a.LaborMultiplier == 0 {
			a.LaborMultiplier = 1
		}
		if a.ResourceMultiplier == 0 {
			a.ResourceMultiplier = 1
		}
		c.actors[a.ID] = a
		c.actorIDs = append(c.actorIDs, a.ID)
	}

	return c, nil
}

func (c *Catalog) buildVariant(f *Family, vd variantDoc) (*Variant, error) {
	v := &Variant{ID: vd.ID, Name: vd.Name, Family: f}
	if v.Name == "" {
		v.Name = f.Name
	}
	for _, e := range vd.Ingredients {
		ing := Ingredient{Tag: e.Tag, Quantity: Quantity{Amount: e.Amount, Static: e.Static}}
		if e.Tag == "" {
			it, ok := c.ItemByName(e.Item)
			if !ok {
				return nil, fmt.Errorf("variant %q: unknown ingredient %q", vd.ID, e.Item)
			}
			ing.Item = it.ID
		} else if len(c.tagged[e.Tag]) == 0 {
			return nil, fmt.Errorf("variant %q: no item carries tag %q", vd.ID, e.Tag)
		}
		v.Ingredients = append(v.Ingredients, ing)
	}
	for _, e := range vd.Products {
		it, ok := c.ItemByName(e.Item)
		if !ok {
			return nil, fmt.Errorf("variant %q: unknown product %q", vd.ID, e.Item)
		}
		v.Products = append(v.Products, Product{Item: it.ID, Quantity: Quantity{Amount: e.Amount, Static: e.Static}})
	}
	return v, nil
}
