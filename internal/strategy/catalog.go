package strategy

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sibyl/internal/logger"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Template 描述单个策略模板：默认参数、参数 schema 与提示词片段。
type Template struct {
	ID          string         `yaml:"id"`
	Description string         `yaml:"description"`
	PromptHint  string         `yaml:"prompt_hint"`
	Defaults    map[string]any `yaml:"defaults"`
	Schema      map[string]any `yaml:"schema"`

	schemaCompiled *jsonschema.Schema
}

type catalogFile struct {
	Strategies map[string]Template `yaml:"strategies"`
}

// Catalog manages strategy templates. The embedded defaults always load; an
// optional external file overlays them and can hot-reload on change.
type Catalog struct {
	path string

	mu        sync.RWMutex
	templates map[string]Template
	loadedAt  time.Time
	version   int64
}

// NewCatalog loads the embedded catalog, overlays path when the file
// exists, and (optionally) watches it for edits.
func NewCatalog(path string, watch bool) (*Catalog, error) {
	c := &Catalog{path: strings.TrimSpace(path)}
	if err := c.reload(); err != nil {
		return nil, err
	}
	if watch && c.path != "" {
		if _, err := os.Stat(c.path); err == nil {
			v := viper.New()
			v.SetConfigFile(c.path)
			v.OnConfigChange(func(fsnotify.Event) {
				if err := c.reload(); err != nil {
					logger.Errorf("策略目录重载失败: %v", err)
				}
			})
			v.WatchConfig()
		}
	}
	return c, nil
}

func (c *Catalog) reload() error {
	templates := make(map[string]Template)
	if err := mergeCatalog(templates, embeddedCatalog, "embedded"); err != nil {
		return err
	}
	if c.path != "" {
		if raw, err := os.ReadFile(c.path); err == nil {
			if err := mergeCatalog(templates, raw, filepath.Base(c.path)); err != nil {
				return err
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("read strategy catalog failed: %w", err)
		}
	}
	for id := range templates {
		if _, ok := builders[id]; !ok {
			logger.Warnf("策略目录包含未注册的策略: %s", id)
		}
	}
	c.mu.Lock()
	c.templates = templates
	c.loadedAt = time.Now()
	c.version++
	c.mu.Unlock()
	logger.Infof("Strategy catalog loaded %d templates", len(templates))
	return nil
}

func mergeCatalog(dest map[string]Template, raw []byte, origin string) error {
	var cfg catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fmt.Errorf("parse strategy catalog (%s) failed: %w", origin, err)
	}
	for name, tpl := range cfg.Strategies {
		tpl.ID = strings.TrimSpace(tpl.ID)
		if tpl.ID == "" {
			tpl.ID = strings.ToLower(strings.TrimSpace(name))
		}
		if len(tpl.Schema) > 0 {
			compiled, err := compileSchema(tpl.Schema)
			if err != nil {
				return fmt.Errorf("strategy schema compile failed (%s): %w", tpl.ID, err)
			}
			tpl.schemaCompiled = compiled
		}
		dest[tpl.ID] = tpl
	}
	return nil
}

func compileSchema(data map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// Template returns the template for a strategy name.
func (c *Catalog) Template(name string) (Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tpl, ok := c.templates[strings.ToLower(strings.TrimSpace(name))]
	return tpl, ok
}

// Names lists catalog strategy names in stable order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.templates))
	for id := range c.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve validates raw params against the template schema and merges the
// template defaults underneath, returning the effective parameter set.
func (c *Catalog) Resolve(name string, raw map[string]any) (Params, error) {
	tpl, ok := c.Template(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	params := NormalizeParams(raw)
	if tpl.schemaCompiled != nil {
		if err := tpl.schemaCompiled.Validate(map[string]any(params)); err != nil {
			return nil, fmt.Errorf("strategy %s params rejected: %v", tpl.ID, err)
		}
	}
	merged := make(Params, len(tpl.Defaults)+len(params))
	for key, value := range NormalizeParams(tpl.Defaults) {
		merged[key] = value
	}
	for key, value := range params {
		merged[key] = value
	}
	return merged, nil
}

// PromptBlock renders the catalog as a prompt fragment listing each
// strategy and its parameter hint.
func (c *Catalog) PromptBlock() string {
	var b strings.Builder
	b.WriteString("## Available Strategies\n")
	for idx, name := range c.Names() {
		tpl, _ := c.Template(name)
		line := fmt.Sprintf("%d. %s", idx+1, tpl.ID)
		if tpl.Description != "" {
			line += " - " + tpl.Description
		}
		b.WriteString(line + "\n")
		if hint := strings.TrimSpace(tpl.PromptHint); hint != "" {
			b.WriteString("   " + strings.ReplaceAll(hint, "\n", "\n   ") + "\n")
		}
	}
	return b.String()
}
