package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/G-Node/reform/reform"
	"github.com/G-Node/reform/reform/form"
	"gopkg.in/yaml.v3"
)

// fileConfig is the layout of the configuration file.
type fileConfig struct {
	Server reform.Config `yaml:"server"`
	// Controller options used by the check command.
	Controller yaml.Node `yaml:"controller"`
	Form       *formSpec `yaml:"form"`
}

type formSpec struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Pages       []pageSpec `yaml:"pages"`
}

type pageSpec struct {
	Description string        `yaml:"description"`
	Elements    []elementSpec `yaml:"elements"`
}

type elementSpec struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Label       string           `yaml:"label"`
	Description string           `yaml:"description"`
	Type        form.ElementType `yaml:"type"`
	Value       string           `yaml:"value"`
	ValueList   []string         `yaml:"valueList"`
	Required    bool             `yaml:"required"`
	ReadOnly    bool             `yaml:"readOnly"`
	Rules       ruleSpec         `yaml:"rules"`
}

type ruleSpec struct {
	MinLength  int      `yaml:"minLength"`
	MaxLength  int      `yaml:"maxLength"`
	Pattern    string   `yaml:"pattern"`
	PatternMsg string   `yaml:"patternMsg"`
	Email      bool     `yaml:"email"`
	Min        *int     `yaml:"min"`
	Max        *int     `yaml:"max"`
	OneOf      []string `yaml:"oneOf"`
}

// readConfig reads the configuration file at path.  An empty path yields an
// empty configuration.
func readConfig(path string) (*fileConfig, error) {
	cfg := new(fileConfig)
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := decodeConfig(f, cfg); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return cfg, nil
}

func decodeConfig(r io.Reader, cfg *fileConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// controllerOptions decodes the controller section over the defaults.
func (cfg *fileConfig) controllerOptions() (reform.Options, error) {
	opts := reform.DefaultOptions()
	if cfg.Controller.Kind == 0 {
		return opts, nil
	}
	if err := cfg.Controller.Decode(&opts); err != nil {
		return reform.Options{}, fmt.Errorf("controller options: %w", err)
	}
	return opts, nil
}

// build turns the form definition into a form.Form.
func (spec *formSpec) build() (form.Form, error) {
	f := form.Form{
		ID:          spec.ID,
		Name:        spec.Name,
		Description: spec.Description,
	}
	for _, ps := range spec.Pages {
		page := form.Page{Description: ps.Description}
		for _, es := range ps.Elements {
			rules, err := es.Rules.build()
			if err != nil {
				return form.Form{}, fmt.Errorf("element %q: %w", es.Name, err)
			}
			id := es.ID
			if id == "" {
				id = fmt.Sprintf("%s_%s", spec.ID, es.Name)
			}
			page.Elements = append(page.Elements, form.Element{
				ID:          id,
				Name:        es.Name,
				Label:       es.Label,
				Description: es.Description,
				Type:        es.Type,
				Value:       es.Value,
				ValueList:   es.ValueList,
				Required:    es.Required,
				ReadOnly:    es.ReadOnly,
				Rules:       rules,
			})
		}
		f.Pages = append(f.Pages, page)
	}
	return f, nil
}

func (rs ruleSpec) build() (rules []form.Rule, err error) {
	defer func() {
		// Pattern panics on an invalid expression
		if r := recover(); r != nil {
			rules, err = nil, fmt.Errorf("invalid rule: %v", r)
		}
	}()
	if rs.Email {
		rules = append(rules, form.Email())
	}
	if rs.MinLength > 0 {
		rules = append(rules, form.MinLength(rs.MinLength))
	}
	if rs.MaxLength > 0 {
		rules = append(rules, form.MaxLength(rs.MaxLength))
	}
	if rs.Pattern != "" {
		msg := rs.PatternMsg
		if msg == "" {
			msg = "has an invalid format"
		}
		rules = append(rules, form.Pattern(rs.Pattern, msg))
	}
	if rs.Min != nil || rs.Max != nil {
		lo, hi := math.MinInt, math.MaxInt
		if rs.Min != nil {
			lo = *rs.Min
		}
		if rs.Max != nil {
			hi = *rs.Max
		}
		rules = append(rules, form.Integer(lo, hi))
	}
	if len(rs.OneOf) > 0 {
		rules = append(rules, form.OneOf(rs.OneOf...))
	}
	return rules, nil
}
